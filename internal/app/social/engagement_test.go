package social

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngagement(t *testing.T) {
	tests := []struct {
		name string
		in   *EngagementInput
		want float64
	}{
		{"nil input", nil, 0},
		{"all zero", &EngagementInput{}, 0},
		{"typical", &EngagementInput{Likes: 10, Comments: 5, Shares: 2, Views: 100}, 17.0},
		{"views zero uses one", &EngagementInput{Likes: 3}, 300},
		{"views one", &EngagementInput{Likes: 1, Comments: 1, Views: 1}, 200},
		{"over one hundred percent", &EngagementInput{Likes: 50, Comments: 50, Shares: 50, Views: 10}, 1500},
		{"fractional", &EngagementInput{Likes: 1, Views: 3}, (1.0 / 3) * 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Engagement(tt.in))
		})
	}
}

// 结果必须与 (sum/max(views,1))*100 逐位一致，不能调换乘除顺序。
func TestEngagementMatchesFormulaExactly(t *testing.T) {
	for sum := uint64(0); sum <= 50; sum++ {
		for views := uint64(0); views <= 50; views++ {
			in := &EngagementInput{Likes: sum / 2, Comments: sum / 3, Shares: sum - sum/2 - sum/3, Views: views}
			want := (float64(sum) / math.Max(float64(views), 1)) * 100
			if got := Engagement(in); got != want {
				t.Fatalf("sum=%d views=%d: got %v, want %v", sum, views, got, want)
			}
		}
	}
}

func TestEngagementAgainstFixedDenominator(t *testing.T) {
	in := EngagementInput{Likes: 3, Comments: 2}
	assert.Equal(t, 5.0, EngagementAgainst(in, 100))
	// 分母为 0 时按 1 计算
	assert.Equal(t, 500.0, EngagementAgainst(in, 0))
}

func TestNewMetricsKeepsInputs(t *testing.T) {
	m := NewMetrics(EngagementInput{Likes: 10, Comments: 5, Shares: 2, Views: 100})
	assert.Equal(t, Metrics{Likes: 10, Comments: 5, Shares: 2, Views: 100, Engagement: 17}, m)
}
