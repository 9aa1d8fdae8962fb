package trace

// span attribute keys used by the social gateway.
const (
	SocialPlatform = "social.platform"
	SocialAction   = "social.action"
	SocialOutcome  = "social.outcome"
	SocialStep     = "social.vendor.step"
	ClientID       = "client.id"
)
