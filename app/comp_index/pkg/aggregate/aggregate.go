package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/config"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/storage"
)

// 锚点寻找最近可用日期时的最大搜索半径（天）。
// 超出半径仍无数据的锚点直接从结果序列里省略，绝不插值或造数。
const fallbackWindowDays = 7

// Anchor 趋势采样的时间锚点：一个标签加一个相对"当前"的天数偏移
type Anchor struct {
	Label        string `json:"label"`
	RelativeDays int    `json:"relative_days"`
}

// TrendPoint 趋势序列中的一个采样点。Date 是实际命中的日期，
// 可能偏离锚点目标日期最多 fallbackWindowDays 天。
type TrendPoint struct {
	Label string  `json:"label"`
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// DefaultAnchors 默认锚点阶梯：从三年前到当天
func DefaultAnchors() []Anchor {
	return []Anchor{
		{Label: "3年前", RelativeDays: 1095},
		{Label: "1年前", RelativeDays: 365},
		{Label: "6个月前", RelativeDays: 182},
		{Label: "1个月前", RelativeDays: 30},
		{Label: "7天前", RelativeDays: 7},
		{Label: "昨天", RelativeDays: 1},
		{Label: "今天", RelativeDays: 0},
	}
}

// AnchorsFromConfig 把配置里的锚点转成查询锚点，空配置回落到默认阶梯
func AnchorsFromConfig(cfgs []config.AnchorConfig) []Anchor {
	if len(cfgs) == 0 {
		return DefaultAnchors()
	}
	anchors := make([]Anchor, 0, len(cfgs))
	for _, c := range cfgs {
		anchors = append(anchors, Anchor{Label: c.Label, RelativeDays: c.Days})
	}
	return anchors
}

// Aggregator 聚合与时间锚定引擎。对历史打分结果计算综合指数、
// 分类子指数和按锚点采样的趋势序列。
type Aggregator struct {
	store storage.ResultStore
}

// NewAggregator 创建聚合器
func NewAggregator(store storage.ResultStore) *Aggregator {
	return &Aggregator{store: store}
}

// CompositeIndex 某公司某日期的综合指数：当日全部结果行加权分求和。
// 同一条目的重复行不去重，照样计入（重跑同一天是追加语义）。
// 无任何数据行时 ok 为 false，调用方据此区分"没数据"和"得分为零"。
func (a *Aggregator) CompositeIndex(ctx context.Context, companyID, date string) (float64, bool, error) {
	rows, err := a.store.ResultsByCompanyAndDate(ctx, companyID, date)
	if err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	var sum float64
	for _, r := range rows {
		sum += r.WeightedScore
	}
	return sum, true, nil
}

// SubIndex 某公司某日期某类别的子指数（展示口径）：原始分的算术平均。
// 注意这和该类别对综合指数的贡献（加权分求和）不是同一个数。
func (a *Aggregator) SubIndex(ctx context.Context, companyID, date, category string) (float64, bool, error) {
	rows, err := a.store.ResultsByCompanyAndDate(ctx, companyID, date)
	if err != nil {
		return 0, false, err
	}
	var sum float64
	var n int
	for _, r := range rows {
		if r.Category == category {
			sum += float64(r.RawScore)
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

// CategoryContribution 某类别对综合指数的贡献（聚合口径）：加权分求和
func (a *Aggregator) CategoryContribution(ctx context.Context, companyID, date, category string) (float64, bool, error) {
	rows, err := a.store.ResultsByCompanyAndDate(ctx, companyID, date)
	if err != nil {
		return 0, false, err
	}
	var sum float64
	var n int
	for _, r := range rows {
		if r.Category == category {
			sum += r.WeightedScore
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum, true, nil
}

// TrendSeries 按锚点采样综合指数趋势。对每个锚点先找目标日期的精确数据，
// 没有就按 -1, +1, -2, +2, ... 逐天向外搜索，最远 ±7 天，
// 取第一个有数据的日期；窗口内找不到的锚点从输出里省略。
// 输出保持调用方给定的锚点顺序，引擎不重新排序。
func (a *Aggregator) TrendSeries(ctx context.Context, companyID string, anchors []Anchor, asOf time.Time) ([]TrendPoint, error) {
	var points []TrendPoint
	for _, anchor := range anchors {
		target := asOf.AddDate(0, 0, -anchor.RelativeDays)

		for _, off := range searchOffsets(fallbackWindowDays) {
			date := target.AddDate(0, 0, off).Format(time.DateOnly)
			value, ok, err := a.CompositeIndex(ctx, companyID, date)
			if err != nil {
				return nil, fmt.Errorf("趋势采样失败 [%s @ %s]: %w", companyID, anchor.Label, err)
			}
			if ok {
				points = append(points, TrendPoint{Label: anchor.Label, Date: date, Value: value})
				break
			}
		}
	}
	return points, nil
}

// CategorySample 某类别在某日期的两种口径汇总，供分解展示使用
type CategorySample struct {
	Category     string  `json:"category"`
	MeanRawScore float64 `json:"mean_raw_score"` // 展示口径
	Contribution float64 `json:"contribution"`   // 综合指数贡献口径
}

// Breakdown 某公司某日期按类别分解。无数据时返回空切片。
func (a *Aggregator) Breakdown(ctx context.Context, companyID, date string) ([]CategorySample, error) {
	rows, err := a.store.ResultsByCompanyAndDate(ctx, companyID, date)
	if err != nil {
		return nil, err
	}

	type acc struct {
		rawSum  float64
		wSum    float64
		n       int
	}
	byCat := make(map[string]*acc)
	var order []string
	for _, r := range rows {
		c, ok := byCat[r.Category]
		if !ok {
			c = &acc{}
			byCat[r.Category] = c
			order = append(order, r.Category)
		}
		c.rawSum += float64(r.RawScore)
		c.wSum += r.WeightedScore
		c.n++
	}

	samples := make([]CategorySample, 0, len(order))
	for _, cat := range order {
		c := byCat[cat]
		samples = append(samples, CategorySample{
			Category:     cat,
			MeanRawScore: c.rawSum / float64(c.n),
			Contribution: c.wSum,
		})
	}
	return samples, nil
}

// searchOffsets 生成 0, -1, +1, -2, +2, ... 的逐天搜索偏移序列
func searchOffsets(window int) []int {
	offsets := []int{0}
	for d := 1; d <= window; d++ {
		offsets = append(offsets, -d, d)
	}
	return offsets
}
