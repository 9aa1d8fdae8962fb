package social

// EngagementInput 是计算互动率的四个输入，平台没有的维度传 0。
type EngagementInput struct {
	Likes    uint64
	Comments uint64
	Shares   uint64
	Views    uint64
}

// Engagement = (likes+comments+shares) / max(views,1) * 100。
// 没有任何指标（nil）时直接返回 0。
func Engagement(in *EngagementInput) float64 {
	if in == nil {
		return 0
	}
	return EngagementAgainst(*in, in.Views)
}

// EngagementAgainst 用固定分母计算（GitHub 没有曝光数，分母固定为 100）。
func EngagementAgainst(in EngagementInput, denominator uint64) float64 {
	if denominator < 1 {
		denominator = 1
	}
	return (float64(in.Likes+in.Comments+in.Shares) / float64(denominator)) * 100
}

// NewMetrics 用通用公式填充 Engagement。
func NewMetrics(in EngagementInput) Metrics {
	return Metrics{
		Likes:      in.Likes,
		Comments:   in.Comments,
		Shares:     in.Shares,
		Views:      in.Views,
		Engagement: Engagement(&in),
	}
}
