package adapters

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"socialgw.local/internal/app/social"
)

const (
	githubLabel = "social-post"
	// GitHub 没有曝光数，互动率固定以 100 为分母
	githubEngagementDenominator = 100
)

type GitHubConfig struct {
	Token string

	BaseURL string // https://api.github.com
}

// GitHub 的"发帖"是在调用方指定的仓库里开一个带 social-post 标签的 issue。
// postId 形如 owner/name#123。
type GitHub struct {
	cfg    GitHubConfig
	client *vendorClient
}

func NewGitHub(cfg GitHubConfig, opts Options) *GitHub {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	return &GitHub{cfg: cfg, client: newVendorClient(social.GitHub, opts.httpClient(), opts)}
}

func (g *GitHub) Platform() social.PlatformID { return social.GitHub }

func (g *GitHub) header() http.Header {
	h := bearer(g.cfg.Token)
	h.Set("Accept", "application/vnd.github+json")
	h.Set("X-GitHub-Api-Version", "2022-11-28")
	return h
}

func (g *GitHub) Post(ctx context.Context, p social.PostPayload) (social.PostResult, error) {
	if p.Repository == "" {
		return social.PostResult{}, social.PlatformPrecondition(social.GitHub, "GitHub requires a repository")
	}
	owner, name, ok := social.SplitRepository(p.Repository)
	if !ok {
		return social.PostResult{}, social.PlatformPrecondition(social.GitHub, "repository must be in owner/name form")
	}

	issue := map[string]any{
		"title":  titleFrom(p),
		"body":   p.Content,
		"labels": []string{githubLabel},
	}
	var out struct {
		Number int64 `json:"number"`
	}
	if _, err := g.client.doJSON(ctx, "create_issue", http.MethodPost, g.issuesURL(owner, name), g.header(), issue, &out); err != nil {
		return social.PostResult{}, err
	}
	if out.Number == 0 {
		return social.PostResult{}, g.client.fail("create_issue", "response has no issue number")
	}
	return social.PostResult{PostID: owner + "/" + name + "#" + strconv.FormatInt(out.Number, 10)}, nil
}

func (g *GitHub) Analytics(ctx context.Context, q social.AnalyticsQuery) (social.Metrics, error) {
	owner, name, number, ok := parseIssueID(q.PostID)
	if !ok {
		return social.Metrics{}, social.PlatformPrecondition(social.GitHub, "postId must look like owner/name#number")
	}

	var out struct {
		Comments  uint64 `json:"comments"`
		Reactions struct {
			PlusOne uint64 `json:"+1"`
		} `json:"reactions"`
	}
	u := g.issuesURL(owner, name) + "/" + strconv.FormatInt(number, 10)
	if _, err := g.client.doJSON(ctx, "get_issue", http.MethodGet, u, g.header(), nil, &out); err != nil {
		return social.Metrics{}, err
	}

	in := social.EngagementInput{Likes: out.Reactions.PlusOne, Comments: out.Comments}
	return social.Metrics{
		Likes:      in.Likes,
		Comments:   in.Comments,
		Engagement: social.EngagementAgainst(in, githubEngagementDenominator),
	}, nil
}

func (g *GitHub) issuesURL(owner, name string) string {
	return g.cfg.BaseURL + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name) + "/issues"
}

func parseIssueID(id string) (owner, name string, number int64, ok bool) {
	repo, num, found := strings.Cut(id, "#")
	if !found {
		return "", "", 0, false
	}
	owner, name, ok = social.SplitRepository(repo)
	if !ok {
		return "", "", 0, false
	}
	number, err := strconv.ParseInt(num, 10, 64)
	if err != nil || number <= 0 {
		return "", "", 0, false
	}
	return owner, name, number, true
}
