package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleItemsYAML = `
items:
  - company_id: "acme"
    sequence_number: 1
    category: "I. 内部因素"
    prompt_text: "营收是否增长？"
    weight: 0.5
  - company_id: "acme"
    sequence_number: 2
    category: "II. 外部因素"
    prompt_text: "竞品是否发布？"
    weight: -0.3
`

func writeTempItems(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写临时清单失败: %v", err)
	}
	return path
}

func TestLoadItemsFile(t *testing.T) {
	items, err := LoadItemsFile(writeTempItems(t, sampleItemsYAML))
	if err != nil {
		t.Fatalf("LoadItemsFile: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].CompanyID != "acme" || items[0].Weight != 0.5 {
		t.Errorf("items[0] = %+v", items[0])
	}
}

func TestLoadItemsFileRejectsIncomplete(t *testing.T) {
	bad := `
items:
  - sequence_number: 1
    prompt_text: "缺 company_id"
`
	if _, err := LoadItemsFile(writeTempItems(t, bad)); err == nil {
		t.Error("缺少 company_id 的条目应当报错")
	}
}

func TestSeedItems(t *testing.T) {
	m := NewMemory()
	n, err := SeedItems(context.Background(), m, writeTempItems(t, sampleItemsYAML))
	if err != nil {
		t.Fatalf("SeedItems: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	items, _ := m.ItemsByCompany(context.Background(), "acme")
	if len(items) != 2 {
		t.Errorf("对齐后条目数 = %d, want 2", len(items))
	}

	// 再对齐一次是幂等的
	if _, err := SeedItems(context.Background(), m, writeTempItems(t, sampleItemsYAML)); err != nil {
		t.Fatalf("重复 SeedItems: %v", err)
	}
	items, _ = m.ItemsByCompany(context.Background(), "acme")
	if len(items) != 2 {
		t.Errorf("重复对齐不应产生重复条目, got %d", len(items))
	}
}
