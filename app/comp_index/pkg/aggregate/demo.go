package aggregate

import (
	"math"
	"math/rand"
	"time"
)

// DemoTrendSeries 演示/空库状态专用的合成趋势序列。
// 它只给前端空状态占位用，是独立入口，真实查询路径（TrendSeries）
// 永远不会把合成值混进真实数据。
func DemoTrendSeries(anchors []Anchor, asOf time.Time, seed int64) []TrendPoint {
	rng := rand.New(rand.NewSource(seed))
	points := make([]TrendPoint, 0, len(anchors))
	for _, anchor := range anchors {
		target := asOf.AddDate(0, 0, -anchor.RelativeDays)
		// 合成值落在 [-5, 5]，保留一位小数
		value := math.Round((rng.Float64()*10-5)*10) / 10
		points = append(points, TrendPoint{
			Label: anchor.Label,
			Date:  target.Format(time.DateOnly),
			Value: value,
		})
	}
	return points
}
