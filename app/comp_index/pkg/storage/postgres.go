package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/config"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
)

// Postgres 基于 PostgreSQL 的存储实现
type Postgres struct {
	db *sql.DB
}

// NewPostgres 连接数据库并初始化表结构
func NewPostgres(cfg config.DBConfig) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 初始化表结构
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_items (
			id SERIAL PRIMARY KEY,
			company_id TEXT NOT NULL,
			sequence_number INT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			prompt_text TEXT NOT NULL,
			weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			general_rule TEXT NOT NULL DEFAULT '',
			UNIQUE (company_id, sequence_number)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init analysis_items table: %w", err)
	}

	// score_results 只追加。同一 (company_id, item_seq, date) 允许多行，
	// 聚合层按"全部行求和"处理，所以这里不加唯一约束。
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS score_results (
			id SERIAL PRIMARY KEY,
			company_id TEXT NOT NULL,
			item_seq INT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			date DATE NOT NULL,
			raw_score INT NOT NULL,
			weighted_score DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init score_results table: %w", err)
	}
	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_score_results_company_date
		ON score_results (company_id, date)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init score_results index: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) ItemsByCompany(ctx context.Context, companyID string) ([]model.AnalysisItem, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, company_id, sequence_number, category, prompt_text, weight, general_rule
		FROM analysis_items
		WHERE company_id = $1
		ORDER BY sequence_number ASC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.AnalysisItem
	for rows.Next() {
		var it model.AnalysisItem
		if err := rows.Scan(&it.ID, &it.CompanyID, &it.SequenceNumber, &it.Category,
			&it.PromptText, &it.Weight, &it.GeneralRule); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpsertItems 按 (company_id, sequence_number) 写入或覆盖条目
func (p *Postgres) UpsertItems(ctx context.Context, items []model.AnalysisItem) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO analysis_items (company_id, sequence_number, category, prompt_text, weight, general_rule)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (company_id, sequence_number)
			DO UPDATE SET category = $3, prompt_text = $4, weight = $5, general_rule = $6
		`, it.CompanyID, it.SequenceNumber, it.Category, it.PromptText, it.Weight, it.GeneralRule); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert item [%s #%d]: %w", it.CompanyID, it.SequenceNumber, err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) AppendResult(ctx context.Context, r model.ScoreResult) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO score_results (company_id, item_seq, category, date, raw_score, weighted_score)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.CompanyID, r.ItemSeq, r.Category, r.Date, r.RawScore, r.WeightedScore)
	return err
}

func (p *Postgres) ResultsByCompanyAndDate(ctx context.Context, companyID, date string) ([]model.ScoreResult, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT company_id, item_seq, category, to_char(date, 'YYYY-MM-DD'), raw_score, weighted_score
		FROM score_results
		WHERE company_id = $1 AND date = $2
	`, companyID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

func (p *Postgres) ResultsByCompanyDateRange(ctx context.Context, companyID, start, end string) ([]model.ScoreResult, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT company_id, item_seq, category, to_char(date, 'YYYY-MM-DD'), raw_score, weighted_score
		FROM score_results
		WHERE company_id = $1 AND date BETWEEN $2 AND $3
	`, companyID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]model.ScoreResult, error) {
	var out []model.ScoreResult
	for rows.Next() {
		var r model.ScoreResult
		if err := rows.Scan(&r.CompanyID, &r.ItemSeq, &r.Category, &r.Date,
			&r.RawScore, &r.WeightedScore); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
