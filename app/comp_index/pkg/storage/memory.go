package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
)

// Memory 内存存储实现。用于测试，以及没有数据库时的离线运行。
type Memory struct {
	mu      sync.RWMutex
	items   map[string][]model.AnalysisItem // companyID -> items
	results []model.ScoreResult
}

// NewMemory 创建内存存储
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]model.AnalysisItem)}
}

// AddItems 注入某公司的条目目录
func (m *Memory) AddItems(items ...model.AnalysisItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.items[it.CompanyID] = append(m.items[it.CompanyID], it)
	}
}

// UpsertItems 按 (company_id, sequence_number) 写入或覆盖条目
func (m *Memory) UpsertItems(_ context.Context, items []model.AnalysisItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		replaced := false
		for i, old := range m.items[it.CompanyID] {
			if old.SequenceNumber == it.SequenceNumber {
				m.items[it.CompanyID][i] = it
				replaced = true
				break
			}
		}
		if !replaced {
			m.items[it.CompanyID] = append(m.items[it.CompanyID], it)
		}
	}
	return nil
}

func (m *Memory) ItemsByCompany(_ context.Context, companyID string) ([]model.AnalysisItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]model.AnalysisItem, len(m.items[companyID]))
	copy(items, m.items[companyID])
	sort.Slice(items, func(i, j int) bool { return items[i].SequenceNumber < items[j].SequenceNumber })
	return items, nil
}

func (m *Memory) AppendResult(_ context.Context, r model.ScoreResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func (m *Memory) ResultsByCompanyAndDate(_ context.Context, companyID, date string) ([]model.ScoreResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ScoreResult
	for _, r := range m.results {
		if r.CompanyID == companyID && r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) ResultsByCompanyDateRange(_ context.Context, companyID, start, end string) ([]model.ScoreResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ScoreResult
	for _, r := range m.results {
		if r.CompanyID == companyID && r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
