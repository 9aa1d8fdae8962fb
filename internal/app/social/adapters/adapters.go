// Package adapters 实现八个平台的 social.Adapter。
package adapters

import "socialgw.local/internal/app/social"

// NewAll 按凭证构建全部 adapter。凭证缺失时 adapter 仍然会创建，
// 请求在 config gate 那一步就会被拒绝。
//
// 每个平台都可以用 <PLATFORM>_BASE_URL 覆盖 API 地址（测试环境、代理）。
func NewAll(p social.ConfigProvider, opts Options) []social.Adapter {
	v := func(key string) string { return social.Value(p, key) }
	return []social.Adapter{
		NewTwitter(TwitterConfig{
			APIKey:       v(social.KeyTwitterAPIKey),
			APISecret:    v(social.KeyTwitterAPISecret),
			AccessToken:  v(social.KeyTwitterAccessToken),
			AccessSecret: v(social.KeyTwitterAccessSecret),
			BaseURL:      baseURL(p, "TWITTER_BASE_URL", ""),
			UploadURL:    baseURL(p, "TWITTER_UPLOAD_URL", ""),
		}, opts),
		NewLinkedIn(LinkedInConfig{
			AccessToken: v(social.KeyLinkedInAccessToken),
			PersonURN:   v(social.KeyLinkedInPersonURN),
			BaseURL:     baseURL(p, "LINKEDIN_BASE_URL", ""),
			Version:     v("LINKEDIN_VERSION"),
		}, opts),
		NewFacebook(FacebookConfig{
			PageID:          v(social.KeyFacebookPageID),
			PageAccessToken: v(social.KeyFacebookPageAccessToken),
			BaseURL:         baseURL(p, "FACEBOOK_BASE_URL", ""),
		}, opts),
		NewInstagram(InstagramConfig{
			AccountID:   v(social.KeyInstagramAccountID),
			AccessToken: v(social.KeyInstagramAccessToken),
			BaseURL:     baseURL(p, "INSTAGRAM_BASE_URL", ""),
		}, opts),
		NewYouTube(YouTubeConfig{
			AccessToken: v(social.KeyYouTubeAccessToken),
			APIKey:      v(social.KeyYouTubeAPIKey),
			BaseURL:     baseURL(p, "YOUTUBE_BASE_URL", ""),
		}, opts),
		NewTelegram(TelegramConfig{
			BotToken:  v(social.KeyTelegramBotToken),
			ChannelID: v(social.KeyTelegramChannelID),
			BaseURL:   baseURL(p, "TELEGRAM_BASE_URL", ""),
		}, opts),
		NewWhatsApp(WhatsAppConfig{
			AccessToken:   v(social.KeyWhatsAppAccessToken),
			PhoneNumberID: v(social.KeyWhatsAppPhoneNumberID),
			BaseURL:       baseURL(p, "WHATSAPP_BASE_URL", ""),
		}, opts),
		NewGitHub(GitHubConfig{
			Token:   v(social.KeyGitHubToken),
			BaseURL: baseURL(p, "GITHUB_BASE_URL", ""),
		}, opts),
	}
}
