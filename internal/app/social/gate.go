package social

import "strings"

const (
	KeyTwitterAPIKey       = "TWITTER_API_KEY"
	KeyTwitterAPISecret    = "TWITTER_API_SECRET"
	KeyTwitterAccessToken  = "TWITTER_ACCESS_TOKEN"
	KeyTwitterAccessSecret = "TWITTER_ACCESS_SECRET"

	KeyLinkedInAccessToken = "LINKEDIN_ACCESS_TOKEN"
	KeyLinkedInPersonURN   = "LINKEDIN_PERSON_URN"

	KeyFacebookPageID          = "FACEBOOK_PAGE_ID"
	KeyFacebookPageAccessToken = "FACEBOOK_PAGE_ACCESS_TOKEN"

	KeyInstagramAccountID   = "INSTAGRAM_ACCOUNT_ID"
	KeyInstagramAccessToken = "INSTAGRAM_ACCESS_TOKEN"

	KeyYouTubeAccessToken = "YOUTUBE_ACCESS_TOKEN"
	KeyYouTubeAPIKey      = "YOUTUBE_API_KEY"

	KeyTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	KeyTelegramChannelID = "TELEGRAM_CHANNEL_ID"

	KeyWhatsAppAccessToken   = "WHATSAPP_ACCESS_TOKEN"
	KeyWhatsAppPhoneNumberID = "WHATSAPP_PHONE_NUMBER_ID"

	KeyGitHubToken = "GITHUB_TOKEN"
)

// RequiredKeys 列出每个平台必须配置的凭证。
var RequiredKeys = map[PlatformID][]string{
	Twitter:   {KeyTwitterAPIKey, KeyTwitterAPISecret, KeyTwitterAccessToken, KeyTwitterAccessSecret},
	LinkedIn:  {KeyLinkedInAccessToken, KeyLinkedInPersonURN},
	Facebook:  {KeyFacebookPageID, KeyFacebookPageAccessToken},
	Instagram: {KeyInstagramAccountID, KeyInstagramAccessToken},
	YouTube:   {KeyYouTubeAccessToken, KeyYouTubeAPIKey},
	Telegram:  {KeyTelegramBotToken, KeyTelegramChannelID},
	WhatsApp:  {KeyWhatsAppAccessToken, KeyWhatsAppPhoneNumberID},
	GitHub:    {KeyGitHubToken},
}

// ConfigProvider 提供凭证，config.Config 和测试里的 MapProvider 都实现它。
type ConfigProvider interface {
	Lookup(key string) (string, bool)
}

type MapProvider map[string]string

func (m MapProvider) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Value 取一个 key，不存在时返回空串。
func Value(p ConfigProvider, key string) string {
	v, _ := p.Lookup(key)
	return strings.TrimSpace(v)
}

type ConfigGate struct {
	provider ConfigProvider
	scope    []PlatformID
}

// NewConfigGate 的 scope 为空时检查全部平台。
func NewConfigGate(provider ConfigProvider, scope []PlatformID) *ConfigGate {
	if len(scope) == 0 {
		scope = SupportedPlatforms()
	}
	return &ConfigGate{provider: provider, scope: scope}
}

func (g *ConfigGate) Scope() []PlatformID {
	out := make([]PlatformID, len(g.scope))
	copy(out, g.scope)
	return out
}

// EnsureReady 检查给定平台（不传则用 scope）的凭证，一次性报告所有缺失的 key。
func (g *ConfigGate) EnsureReady(platforms ...PlatformID) error {
	if len(platforms) == 0 {
		platforms = g.scope
	}
	var missing []string
	seen := make(map[string]bool)
	for _, p := range platforms {
		for _, key := range RequiredKeys[p] {
			if seen[key] {
				continue
			}
			seen[key] = true
			if Value(g.provider, key) == "" {
				missing = append(missing, key)
			}
		}
	}
	if len(missing) > 0 {
		return ConfigError(missing)
	}
	return nil
}

// Ready 报告单个平台是否配置完整。
func (g *ConfigGate) Ready(p PlatformID) bool {
	return g.EnsureReady(p) == nil
}
