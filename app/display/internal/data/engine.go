package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/aggregate"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/config"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/engine"
	enginelog "github.com/iWorld-y/comp_index/app/comp_index/pkg/logger"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/oracle"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/storage"
	"github.com/iWorld-y/comp_index/app/display/internal/conf"
)

// EngineBundle 把指数引擎的各组件打包注入数据层。
// display 服务和命令行工具共用同一套引擎代码，只是装配位置不同。
type EngineBundle struct {
	Store      storage.Store
	Engine     *engine.Engine
	Aggregator *aggregate.Aggregator
	Anchors    []aggregate.Anchor
	DemoMode   bool
}

// NewEngineBundle 按 display 配置装配指数引擎
func NewEngineBundle(c *conf.Engine, logger log.Logger) (*EngineBundle, func(), error) {
	helper := log.NewHelper(logger)
	cfg := engineConfig(c)

	// 引擎内部用自己的 logrus 日志，和 kratos 日志各管各的
	if err := enginelog.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, nil, err
	}

	var store storage.Store
	if cfg.DB.Host != "" {
		pg, err := storage.NewPostgres(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		store = pg
		helper.Info("engine storage: postgres")
	} else {
		store = storage.NewMemory()
		helper.Warn("engine storage: in-memory, results will not survive restarts")
	}

	if cfg.ItemsFile != "" {
		n, err := storage.SeedItems(context.Background(), store, cfg.ItemsFile)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		helper.Infof("seeded %d analysis items from %s", n, cfg.ItemsFile)
	}

	orc, err := oracle.New(context.Background(), cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	b := &EngineBundle{
		Store:      store,
		Engine:     engine.NewEngine(store, orc, cfg.Concurrency.Workers),
		Aggregator: aggregate.NewAggregator(store),
		Anchors:    aggregate.AnchorsFromConfig(cfg.Anchors),
		DemoMode:   orc.Demo(),
	}
	cleanup := func() {
		helper.Info("closing the engine resources")
		if err := store.Close(); err != nil {
			helper.Error(err)
		}
	}
	return b, cleanup, nil
}

// engineConfig 把 display 的 bootstrap 配置转成引擎配置
func engineConfig(c *conf.Engine) *config.Config {
	cfg := &config.Config{}
	if c == nil {
		return cfg
	}
	cfg.ItemsFile = c.ItemsFile
	if c.Llm != nil {
		cfg.LLM = config.LLMConfig{
			BaseURL: c.Llm.BaseUrl,
			APIKey:  c.Llm.ApiKey,
			Model:   c.Llm.Model,
		}
	}
	if c.Log != nil {
		cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
	}
	if c.Concurrency != nil {
		cfg.Concurrency = config.ConcurrencyConfig{
			QPS:     int(c.Concurrency.Qps),
			RPM:     int(c.Concurrency.Rpm),
			Workers: int(c.Concurrency.Workers),
		}
	}
	if c.Scoring != nil {
		cfg.Scoring = config.ScoringConfig{
			MaxRetries:     int(c.Scoring.MaxRetries),
			CallIntervalMs: int(c.Scoring.CallIntervalMs),
		}
	}
	for _, a := range c.Anchors {
		cfg.Anchors = append(cfg.Anchors, config.AnchorConfig{Label: a.Label, Days: int(a.Days)})
	}
	if c.Db != nil {
		cfg.DB = config.DBConfig{
			Host:     c.Db.Host,
			Port:     int(c.Db.Port),
			User:     c.Db.User,
			Password: c.Db.Password,
			Name:     c.Db.Name,
		}
	}
	return cfg
}
