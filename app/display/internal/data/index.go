package data

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/aggregate"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/engine"
	dm "github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
	"github.com/iWorld-y/comp_index/app/display/internal/biz"
)

type indexRepo struct {
	bundle *EngineBundle
	log    *log.Helper
}

// NewIndexRepo 创建指数仓库实例
func NewIndexRepo(bundle *EngineBundle, logger log.Logger) biz.IndexRepo {
	return &indexRepo{
		bundle: bundle,
		log:    log.NewHelper(logger),
	}
}

// RunAnalysis 对某公司执行一次分析运行
func (r *indexRepo) RunAnalysis(ctx context.Context, companyID, targetDate string, sel dm.Selection) (*dm.RunSummary, error) {
	summary, err := r.bundle.Engine.Run(ctx, engine.RunOptions{
		CompanyID:  companyID,
		TargetDate: targetDate,
		Selection:  sel,
	})
	if err != nil {
		r.log.WithContext(ctx).Errorf("分析运行失败 [%s]: %v", companyID, err)
		return summary, err
	}
	return summary, nil
}

// CompositeIndex 某公司某日期的综合指数，没数据返回 nil
func (r *indexRepo) CompositeIndex(ctx context.Context, companyID, date string) (*float64, error) {
	v, ok, err := r.bundle.Aggregator.CompositeIndex(ctx, companyID, date)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// SubIndex 某类别的子指数及贡献，没数据两者都返回 nil
func (r *indexRepo) SubIndex(ctx context.Context, companyID, date, category string) (*float64, *float64, error) {
	mean, ok, err := r.bundle.Aggregator.SubIndex(ctx, companyID, date, category)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}
	contribution, _, err := r.bundle.Aggregator.CategoryContribution(ctx, companyID, date, category)
	if err != nil {
		return nil, nil, err
	}
	return &mean, &contribution, nil
}

// Breakdown 某公司某日期按类别分解
func (r *indexRepo) Breakdown(ctx context.Context, companyID, date string) ([]aggregate.CategorySample, error) {
	return r.bundle.Aggregator.Breakdown(ctx, companyID, date)
}

// TrendSeries 真实趋势序列，按配置锚点以 asOf 为基准采样
func (r *indexRepo) TrendSeries(ctx context.Context, companyID string, asOf time.Time) ([]aggregate.TrendPoint, error) {
	return r.bundle.Aggregator.TrendSeries(ctx, companyID, r.bundle.Anchors, asOf)
}

// DemoTrendSeries 合成趋势序列，独立入口，不会混入真实数据
func (r *indexRepo) DemoTrendSeries(asOf time.Time) []aggregate.TrendPoint {
	return aggregate.DemoTrendSeries(r.bundle.Anchors, asOf, time.Now().UnixNano())
}

// DemoMode 预言机是否为演示降级模式
func (r *indexRepo) DemoMode() bool {
	return r.bundle.DemoMode
}
