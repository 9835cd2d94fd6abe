package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/aggregate"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/config"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/engine"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/logger"
	dm "github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/oracle"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/storage"
)

var (
	flagconf string
	flagdate string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagdate, "date", "", "target date (YYYY-MM-DD), default today")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	// 验证配置
	if len(cfg.Companies) == 0 {
		log.Fatal("配置错误: 未设置待分析的公司 (companies)")
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动竞争力指数引擎...")

	ctx := context.Background()

	// 3. 初始化存储
	// 配置了数据库就连 Postgres；没配置就退回内存存储，结果只在本次进程内可见
	var store storage.Store
	if cfg.DB.Host != "" {
		pg, err := storage.NewPostgres(cfg.DB)
		if err != nil {
			logger.Log.Fatalf("无法连接数据库: %v", err)
		}
		store = pg
		defer store.Close()
		logger.Log.Info("已成功连接到数据库")
	} else {
		logger.Log.Warn("未配置数据库信息，使用内存存储，打分结果不会持久化")
		store = storage.NewMemory()
	}

	// 4. 对齐条目目录（配置了清单文件才做）
	if cfg.ItemsFile != "" {
		n, err := storage.SeedItems(ctx, store, cfg.ItemsFile)
		if err != nil {
			logger.Log.Fatalf("条目清单加载失败: %v", err)
		}
		logger.Log.Infof("已从 %s 对齐 %d 个分析条目", cfg.ItemsFile, n)
	}

	// 5. 初始化打分预言机（无 API Key 时自动降级为演示模式）
	orc, err := oracle.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("预言机初始化失败: %v", err)
	}

	// 6. 初始化引擎与聚合器
	eng := engine.NewEngine(store, orc, cfg.Concurrency.Workers)
	agg := aggregate.NewAggregator(store)
	anchors := aggregate.AnchorsFromConfig(cfg.Anchors)

	targetDate := flagdate
	if targetDate == "" {
		targetDate = time.Now().Format(time.DateOnly)
	}

	// 7. 逐公司执行分析运行
	for _, company := range cfg.Companies {
		summary, err := eng.Run(ctx, engine.RunOptions{
			CompanyID:  company,
			TargetDate: targetDate,
			Selection:  dm.Selection{Mode: dm.SelectAll},
			ProgressCallback: func(completed, total int) {
				logger.Log.Debugf("进度 [%s]: %d/%d", company, completed, total)
			},
		})
		if err != nil {
			logger.Log.Errorf("分析运行失败 [%s]: %v", company, err)
			continue
		}

		for _, st := range summary.FailedItems() {
			logger.Log.Warnf("失败条目 [%s #%d %s] %s: %s",
				company, st.Seq, st.Category, st.ErrorType, st.ErrorMessage)
		}

		// 8. 输出当日指数与趋势
		printIndexes(ctx, agg, company, targetDate, anchors, summary.DemoMode)
	}

	logger.Log.Info("✅ 竞争力指数分析完毕")
}

// printIndexes 打印某公司的当日综合指数、分类分解和锚点趋势
func printIndexes(ctx context.Context, agg *aggregate.Aggregator, company, date string, anchors []aggregate.Anchor, demoMode bool) {
	composite, ok, err := agg.CompositeIndex(ctx, company, date)
	if err != nil {
		logger.Log.Errorf("查询综合指数失败 [%s]: %v", company, err)
		return
	}
	if !ok {
		logger.Log.Warnf("公司 [%s] 在 %s 没有任何打分数据", company, date)
		return
	}
	logger.Log.Infof("综合指数 [%s @ %s] = %.2f", company, date, composite)

	breakdown, err := agg.Breakdown(ctx, company, date)
	if err != nil {
		logger.Log.Errorf("查询分类分解失败 [%s]: %v", company, err)
		return
	}
	for _, s := range breakdown {
		logger.Log.Infof("  子指数 [%s] 平均分 %.2f / 贡献 %.2f", s.Category, s.MeanRawScore, s.Contribution)
	}

	points, err := agg.TrendSeries(ctx, company, anchors, time.Now())
	if err != nil {
		logger.Log.Errorf("查询趋势序列失败 [%s]: %v", company, err)
		return
	}
	mark := ""
	if demoMode {
		mark = " [演示数据]"
	}
	for _, p := range points {
		logger.Log.Infof("  趋势%s %s (%s) = %.2f", mark, p.Label, p.Date, p.Value)
	}
	if len(points) == 0 {
		logger.Log.Warnf("公司 [%s] 任何锚点 ±7 天内都没有数据", company)
	}
}
