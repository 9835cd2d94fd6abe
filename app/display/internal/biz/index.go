package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/aggregate"
	dm "github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
)

// IndexRepo 指数仓库接口：封装对分析引擎和聚合器的访问。
// 指数值用指针表达"没数据"：nil 表示该日期/类别下没有任何结果行，
// 和真实得分为 0 区分开。
type IndexRepo interface {
	// RunAnalysis 对某公司执行一次分析运行
	RunAnalysis(ctx context.Context, companyID, targetDate string, sel dm.Selection) (*dm.RunSummary, error)
	// CompositeIndex 某公司某日期的综合指数
	CompositeIndex(ctx context.Context, companyID, date string) (*float64, error)
	// SubIndex 某类别的子指数（原始分均值）及其对综合指数的贡献（加权分求和）
	SubIndex(ctx context.Context, companyID, date, category string) (mean, contribution *float64, err error)
	// Breakdown 某公司某日期按类别分解
	Breakdown(ctx context.Context, companyID, date string) ([]aggregate.CategorySample, error)
	// TrendSeries 按配置锚点采样的真实趋势序列，锚点偏移以 asOf 为基准
	TrendSeries(ctx context.Context, companyID string, asOf time.Time) ([]aggregate.TrendPoint, error)
	// DemoTrendSeries 合成趋势序列，只给空库演示用
	DemoTrendSeries(asOf time.Time) []aggregate.TrendPoint
	// DemoMode 当前预言机是否为演示降级模式
	DemoMode() bool
}

// IndexUseCase 指数业务逻辑
type IndexUseCase struct {
	repo IndexRepo
	log  *log.Helper
}

// NewIndexUseCase 创建指数业务逻辑实例
func NewIndexUseCase(repo IndexRepo, logger log.Logger) *IndexUseCase {
	return &IndexUseCase{repo: repo, log: log.NewHelper(logger)}
}

// StartRun 发起一次分析运行。日期缺省为当天。
func (uc *IndexUseCase) StartRun(ctx context.Context, companyID, targetDate string, sel dm.Selection) (*dm.RunSummary, error) {
	if companyID == "" {
		return nil, errors.BadRequest("INVALID_COMPANY", "company id is empty")
	}
	if targetDate == "" {
		targetDate = time.Now().Format(time.DateOnly)
	}
	if _, err := time.Parse(time.DateOnly, targetDate); err != nil {
		return nil, errors.BadRequest("INVALID_DATE", "date must be YYYY-MM-DD")
	}
	if err := sel.Validate(); err != nil {
		return nil, errors.BadRequest("INVALID_SELECTION", err.Error())
	}

	uc.log.WithContext(ctx).Infof("发起分析运行: company=%s date=%s mode=%s", companyID, targetDate, sel.Mode)
	return uc.repo.RunAnalysis(ctx, companyID, targetDate, sel)
}

// Composite 查询综合指数。nil 表示该日期没有任何结果行。
func (uc *IndexUseCase) Composite(ctx context.Context, companyID, date string) (*float64, error) {
	if companyID == "" {
		return nil, errors.BadRequest("INVALID_COMPANY", "company id is empty")
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, errors.BadRequest("INVALID_DATE", "date must be YYYY-MM-DD")
	}
	return uc.repo.CompositeIndex(ctx, companyID, date)
}

// Sub 查询某类别的子指数和贡献
func (uc *IndexUseCase) Sub(ctx context.Context, companyID, date, category string) (mean, contribution *float64, err error) {
	if companyID == "" {
		return nil, nil, errors.BadRequest("INVALID_COMPANY", "company id is empty")
	}
	if category == "" {
		return nil, nil, errors.BadRequest("INVALID_CATEGORY", "category is empty")
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, nil, errors.BadRequest("INVALID_DATE", "date must be YYYY-MM-DD")
	}
	return uc.repo.SubIndex(ctx, companyID, date, category)
}

// BreakdownByCategory 查询某日期的分类分解
func (uc *IndexUseCase) BreakdownByCategory(ctx context.Context, companyID, date string) ([]aggregate.CategorySample, error) {
	if companyID == "" {
		return nil, errors.BadRequest("INVALID_COMPANY", "company id is empty")
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, errors.BadRequest("INVALID_DATE", "date must be YYYY-MM-DD")
	}
	return uc.repo.Breakdown(ctx, companyID, date)
}

// Trend 查询趋势序列。asOf 是锚点偏移的基准日期，缺省为当天。
// demo 为 true 时返回合成序列并标记 demo，
// 真实序列和合成序列永远不混在同一次响应里。
func (uc *IndexUseCase) Trend(ctx context.Context, companyID, asOf string, demo bool) (points []aggregate.TrendPoint, isDemo bool, err error) {
	base := time.Now()
	if asOf != "" {
		base, err = time.Parse(time.DateOnly, asOf)
		if err != nil {
			return nil, false, errors.BadRequest("INVALID_DATE", "as_of must be YYYY-MM-DD")
		}
	}
	if demo {
		return uc.repo.DemoTrendSeries(base), true, nil
	}
	if companyID == "" {
		return nil, false, errors.BadRequest("INVALID_COMPANY", "company id is empty")
	}
	points, err = uc.repo.TrendSeries(ctx, companyID, base)
	if err != nil {
		return nil, false, err
	}
	return points, false, nil
}

// DemoMode 透出预言机的演示状态，供前端展示占位提示
func (uc *IndexUseCase) DemoMode() bool {
	return uc.repo.DemoMode()
}
