package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/aggregate"
	dm "github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
	"github.com/iWorld-y/comp_index/app/display/internal/biz"
)

// DisplayService 展示服务：聚合用户和指数两块业务逻辑
type DisplayService struct {
	indexUC *biz.IndexUseCase
	userUC  *biz.UserUseCase
	log     *log.Helper
}

// NewDisplayService 创建展示服务实例
func NewDisplayService(indexUC *biz.IndexUseCase, userUC *biz.UserUseCase, logger log.Logger) *DisplayService {
	return &DisplayService{
		indexUC: indexUC,
		userUC:  userUC,
		log:     log.NewHelper(logger),
	}
}

// AuthRequest 注册/登录请求
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginReply 登录响应
type LoginReply struct {
	Token string `json:"token"`
}

// Register 用户注册
func (s *DisplayService) Register(ctx context.Context, req *AuthRequest) error {
	return s.userUC.Register(ctx, req.Username, req.Password)
}

// ProfileReply 用户信息响应
type ProfileReply struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Profile 凭 JWT 查询当前用户信息
func (s *DisplayService) Profile(ctx context.Context, token string) (*ProfileReply, error) {
	username, err := s.userUC.ParseToken(token)
	if err != nil {
		return nil, err
	}
	u, err := s.userUC.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	return &ProfileReply{ID: u.ID, Username: u.Username}, nil
}

// Login 用户登录，返回 JWT
func (s *DisplayService) Login(ctx context.Context, req *AuthRequest) (*LoginReply, error) {
	token, err := s.userUC.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return &LoginReply{Token: token}, nil
}

// StartRunRequest 发起分析运行的请求
type StartRunRequest struct {
	CompanyID  string       `json:"company_id"`
	TargetDate string       `json:"target_date,omitempty"` // 缺省为当天
	Selection  dm.Selection `json:"selection"`             // Mode 缺省为 all
}

// StartRun 发起一次分析运行，同步执行并返回运行汇总
func (s *DisplayService) StartRun(ctx context.Context, req *StartRunRequest) (*dm.RunSummary, error) {
	sel := req.Selection
	if sel.Mode == "" {
		sel.Mode = dm.SelectAll
	}
	return s.indexUC.StartRun(ctx, req.CompanyID, req.TargetDate, sel)
}

// CompositeReply 综合指数响应。Value 为 nil 表示该日期没有任何结果行。
type CompositeReply struct {
	CompanyID string   `json:"company_id"`
	Date      string   `json:"date"`
	Value     *float64 `json:"value"`
	DemoMode  bool     `json:"demo_mode"`
}

// GetComposite 查询综合指数
func (s *DisplayService) GetComposite(ctx context.Context, companyID, date string) (*CompositeReply, error) {
	v, err := s.indexUC.Composite(ctx, companyID, date)
	if err != nil {
		return nil, err
	}
	return &CompositeReply{
		CompanyID: companyID,
		Date:      date,
		Value:     v,
		DemoMode:  s.indexUC.DemoMode(),
	}, nil
}

// SubIndexReply 子指数响应。展示口径（原始分均值）和贡献口径（加权分求和）
// 是两个不同的数，一起返回。
type SubIndexReply struct {
	CompanyID    string   `json:"company_id"`
	Date         string   `json:"date"`
	Category     string   `json:"category"`
	MeanRawScore *float64 `json:"mean_raw_score"`
	Contribution *float64 `json:"contribution"`
}

// GetSubIndex 查询某类别的子指数
func (s *DisplayService) GetSubIndex(ctx context.Context, companyID, date, category string) (*SubIndexReply, error) {
	mean, contribution, err := s.indexUC.Sub(ctx, companyID, date, category)
	if err != nil {
		return nil, err
	}
	return &SubIndexReply{
		CompanyID:    companyID,
		Date:         date,
		Category:     category,
		MeanRawScore: mean,
		Contribution: contribution,
	}, nil
}

// BreakdownReply 分类分解响应
type BreakdownReply struct {
	CompanyID  string                     `json:"company_id"`
	Date       string                     `json:"date"`
	Categories []aggregate.CategorySample `json:"categories"`
}

// GetBreakdown 查询某日期的分类分解
func (s *DisplayService) GetBreakdown(ctx context.Context, companyID, date string) (*BreakdownReply, error) {
	samples, err := s.indexUC.BreakdownByCategory(ctx, companyID, date)
	if err != nil {
		return nil, err
	}
	return &BreakdownReply{CompanyID: companyID, Date: date, Categories: samples}, nil
}

// TrendReply 趋势序列响应。Demo 为 true 时 Points 是合成数据。
type TrendReply struct {
	CompanyID string                 `json:"company_id"`
	Demo      bool                   `json:"demo"`
	Points    []aggregate.TrendPoint `json:"points"`
}

// GetTrend 查询趋势序列。asOf 缺省为当天；demo 参数显式置真才返回合成序列。
func (s *DisplayService) GetTrend(ctx context.Context, companyID, asOf string, demo bool) (*TrendReply, error) {
	points, isDemo, err := s.indexUC.Trend(ctx, companyID, asOf, demo)
	if err != nil {
		return nil, err
	}
	return &TrendReply{CompanyID: companyID, Demo: isDemo, Points: points}, nil
}
