package storage

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
)

// ItemWriter 条目目录的写入契约，只有装载/对齐目录的启动逻辑使用
type ItemWriter interface {
	// UpsertItems 按 (company_id, sequence_number) 写入或覆盖条目
	UpsertItems(ctx context.Context, items []model.AnalysisItem) error
}

// itemFile 条目清单文件的结构
type itemFile struct {
	Items []itemEntry `yaml:"items"`
}

type itemEntry struct {
	CompanyID      string  `yaml:"company_id"`
	SequenceNumber int     `yaml:"sequence_number"`
	Category       string  `yaml:"category"`
	PromptText     string  `yaml:"prompt_text"`
	Weight         float64 `yaml:"weight"`
	GeneralRule    string  `yaml:"general_rule"`
}

// LoadItemsFile 从 YAML 清单加载分析条目
func LoadItemsFile(path string) ([]model.AnalysisItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f itemFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("条目清单解析失败 %s: %w", path, err)
	}

	items := make([]model.AnalysisItem, 0, len(f.Items))
	for _, e := range f.Items {
		if e.CompanyID == "" || e.PromptText == "" {
			return nil, fmt.Errorf("条目清单 %s 含有缺少 company_id 或 prompt_text 的条目 (seq=%d)", path, e.SequenceNumber)
		}
		items = append(items, model.AnalysisItem{
			CompanyID:      e.CompanyID,
			SequenceNumber: e.SequenceNumber,
			Category:       e.Category,
			PromptText:     e.PromptText,
			Weight:         e.Weight,
			GeneralRule:    e.GeneralRule,
		})
	}
	return items, nil
}

// SeedItems 把清单文件里的条目对齐到存储。store 不支持写入条目时报错。
func SeedItems(ctx context.Context, store Store, path string) (int, error) {
	items, err := LoadItemsFile(path)
	if err != nil {
		return 0, err
	}
	w, ok := store.(ItemWriter)
	if !ok {
		return 0, fmt.Errorf("storage %T does not support item seeding", store)
	}
	if err := w.UpsertItems(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}
