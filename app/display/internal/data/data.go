package data

import (
	"database/sql"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/comp_index/app/display/internal/conf"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(NewData, NewUserRepo, NewEngineBundle, NewIndexRepo)

// Data .
type Data struct {
	db *sql.DB
}

// NewData 创建数据库连接并初始化用户表
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	db, err := sql.Open(c.Database.Driver, c.Database.Source)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	// 建用户表（幂等）
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(64) UNIQUE NOT NULL,
			password_hash VARCHAR(128) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		db.Close()
		return nil, nil, err
	}

	d := &Data{db: db}
	cleanup := func() {
		helper.Info("closing the data resources")
		if err := db.Close(); err != nil {
			helper.Error(err)
		}
	}
	return d, cleanup, nil
}
