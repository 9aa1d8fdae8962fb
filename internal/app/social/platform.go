package social

import "strings"

// PlatformID 是网关支持的平台标识，集合是封闭的：新增平台需要同时加常量和 adapter。
type PlatformID string

const (
	Twitter   PlatformID = "twitter"
	LinkedIn  PlatformID = "linkedin"
	Facebook  PlatformID = "facebook"
	Instagram PlatformID = "instagram"
	YouTube   PlatformID = "youtube"
	Telegram  PlatformID = "telegram"
	WhatsApp  PlatformID = "whatsapp"
	GitHub    PlatformID = "github"
)

var supportedPlatforms = []PlatformID{
	Twitter, LinkedIn, Facebook, Instagram, YouTube, Telegram, WhatsApp, GitHub,
}

// SupportedPlatforms 返回全部平台，顺序固定（响应里的 supportedPlatforms 依赖这个顺序）。
func SupportedPlatforms() []PlatformID {
	out := make([]PlatformID, len(supportedPlatforms))
	copy(out, supportedPlatforms)
	return out
}

// ParsePlatform 大小写敏感，和请求体里的 tag 一一对应。
func ParsePlatform(s string) (PlatformID, bool) {
	for _, p := range supportedPlatforms {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// ParsePlatformList 解析逗号分隔的平台列表，未知的名字作为第二个返回值。
func ParsePlatformList(s string) ([]PlatformID, []string) {
	var (
		out     []PlatformID
		unknown []string
		seen    = make(map[PlatformID]bool)
	)
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		p, ok := ParsePlatform(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, unknown
}

func (p PlatformID) String() string { return string(p) }

// Code 是 PlatformError 的机器码，例如 TWITTER_ERROR。
func (p PlatformID) Code() string {
	return strings.ToUpper(string(p)) + "_ERROR"
}

func PlatformNames(ps []PlatformID) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, string(p))
	}
	return out
}

type Action string

const (
	ActionPost      Action = "post"
	ActionAnalytics Action = "analytics"
)

func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionPost, ActionAnalytics:
		return Action(s), true
	default:
		return "", false
	}
}
