package storage

import (
	"context"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
)

// ItemStore 条目目录的只读契约。目录的增删改由管理端负责，引擎只读。
type ItemStore interface {
	// ItemsByCompany 返回某公司的全部分析条目，按序号升序
	ItemsByCompany(ctx context.Context, companyID string) ([]model.AnalysisItem, error)
}

// ResultStore 打分结果的读写契约。只追加，没有更新和删除操作，
// 聚合层的正确性依赖这一点：并发运行最多产生更多行，不会互相覆盖。
type ResultStore interface {
	// AppendResult 追加一条打分结果
	AppendResult(ctx context.Context, r model.ScoreResult) error
	// ResultsByCompanyAndDate 返回某公司某日期的全部结果行
	ResultsByCompanyAndDate(ctx context.Context, companyID, date string) ([]model.ScoreResult, error)
	// ResultsByCompanyDateRange 返回某公司 [start, end] 闭区间内的全部结果行
	ResultsByCompanyDateRange(ctx context.Context, companyID, start, end string) ([]model.ScoreResult, error)
}

// Store 引擎使用的完整存储契约
type Store interface {
	ItemStore
	ResultStore
	Close() error
}
