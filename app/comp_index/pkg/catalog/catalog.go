package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/storage"
)

// Catalog 某公司的条目目录只读视图。单次分析运行期间不可变，
// 目录数据本身归持久层管理，这里只做排序和筛选。
type Catalog struct {
	companyID string
	items     []model.AnalysisItem
}

// New 从给定条目构建目录，按序号升序排列
func New(companyID string, items []model.AnalysisItem) *Catalog {
	sorted := make([]model.AnalysisItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SequenceNumber < sorted[j].SequenceNumber
	})
	return &Catalog{companyID: companyID, items: sorted}
}

// Load 从存储加载某公司的目录
func Load(ctx context.Context, store storage.ItemStore, companyID string) (*Catalog, error) {
	items, err := store.ItemsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("加载条目目录失败 [%s]: %w", companyID, err)
	}
	return New(companyID, items), nil
}

// CompanyID 目录所属公司
func (c *Catalog) CompanyID() string { return c.companyID }

// Items 返回全部条目，按序号升序
func (c *Catalog) Items() []model.AnalysisItem {
	out := make([]model.AnalysisItem, len(c.items))
	copy(out, c.items)
	return out
}

// FilterByCategories 返回类别命中的子序列，保持原有顺序
func (c *Catalog) FilterByCategories(categories []string) []model.AnalysisItem {
	want := make(map[string]bool, len(categories))
	for _, cat := range categories {
		want[cat] = true
	}
	var out []model.AnalysisItem
	for _, it := range c.items {
		if want[it.Category] {
			out = append(out, it)
		}
	}
	return out
}

// FilterBySequenceNumbers 返回序号命中的子序列，保持原有顺序
func (c *Catalog) FilterBySequenceNumbers(seqs []int) []model.AnalysisItem {
	want := make(map[int]bool, len(seqs))
	for _, seq := range seqs {
		want[seq] = true
	}
	var out []model.AnalysisItem
	for _, it := range c.items {
		if want[it.SequenceNumber] {
			out = append(out, it)
		}
	}
	return out
}

// Select 按选择方式取条目子集
func (c *Catalog) Select(sel model.Selection) ([]model.AnalysisItem, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	switch sel.Mode {
	case model.SelectCategory:
		return c.FilterByCategories(sel.Categories), nil
	case model.SelectItem:
		return c.FilterBySequenceNumbers(sel.SequenceNumbers), nil
	default:
		return c.Items(), nil
	}
}
