package storage

import (
	"context"
	"testing"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
)

func TestMemoryItemsSorted(t *testing.T) {
	m := NewMemory()
	m.AddItems(
		model.AnalysisItem{CompanyID: "acme", SequenceNumber: 2, PromptText: "b"},
		model.AnalysisItem{CompanyID: "acme", SequenceNumber: 1, PromptText: "a"},
	)
	items, err := m.ItemsByCompany(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ItemsByCompany: %v", err)
	}
	if len(items) != 2 || items[0].SequenceNumber != 1 || items[1].SequenceNumber != 2 {
		t.Errorf("条目应按序号升序: %+v", items)
	}
}

func TestMemoryUpsertItems(t *testing.T) {
	m := NewMemory()
	m.AddItems(model.AnalysisItem{CompanyID: "acme", SequenceNumber: 1, PromptText: "old", Weight: 0.1})

	err := m.UpsertItems(context.Background(), []model.AnalysisItem{
		{CompanyID: "acme", SequenceNumber: 1, PromptText: "new", Weight: 0.5},
		{CompanyID: "acme", SequenceNumber: 2, PromptText: "added", Weight: -0.2},
	})
	if err != nil {
		t.Fatalf("UpsertItems: %v", err)
	}

	items, _ := m.ItemsByCompany(context.Background(), "acme")
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].PromptText != "new" || items[0].Weight != 0.5 {
		t.Errorf("同序号条目应被覆盖: %+v", items[0])
	}
}

func TestMemoryAppendOnly(t *testing.T) {
	m := NewMemory()
	r := model.ScoreResult{CompanyID: "acme", ItemSeq: 1, Date: "2026-08-31", RawScore: 2, WeightedScore: 1.0}
	// 同一键追加两次，两行都保留
	_ = m.AppendResult(context.Background(), r)
	_ = m.AppendResult(context.Background(), r)

	rows, err := m.ResultsByCompanyAndDate(context.Background(), "acme", "2026-08-31")
	if err != nil {
		t.Fatalf("ResultsByCompanyAndDate: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("追加语义下重复写入应得到两行, got %d", len(rows))
	}
}

func TestMemoryDateRangeInclusive(t *testing.T) {
	m := NewMemory()
	for _, date := range []string{"2026-08-01", "2026-08-15", "2026-08-31", "2026-09-01"} {
		_ = m.AppendResult(context.Background(), model.ScoreResult{CompanyID: "acme", ItemSeq: 1, Date: date})
	}

	rows, err := m.ResultsByCompanyDateRange(context.Background(), "acme", "2026-08-01", "2026-08-31")
	if err != nil {
		t.Fatalf("ResultsByCompanyDateRange: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("闭区间查询应命中 3 行, got %d", len(rows))
	}
}
