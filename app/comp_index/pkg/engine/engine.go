package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/catalog"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/logger"
	dm "github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/oracle"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/storage"
)

// ErrInvalidArgument 运行参数非法，运行不会开始
var ErrInvalidArgument = errors.New("invalid argument")

// Engine 分析运行引擎：对选中的每个条目调用打分预言机，
// 计算加权贡献并落库，同时维护逐条目状态和整体进度。
type Engine struct {
	store   storage.Store
	oracle  oracle.Oracle
	workers int
}

// NewEngine 创建引擎实例。workers 控制单次运行内的打分并发数，
// <=1 表示按目录顺序串行执行。
func NewEngine(store storage.Store, orc oracle.Oracle, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{store: store, oracle: orc, workers: workers}
}

// RunOptions 运行选项
type RunOptions struct {
	CompanyID  string
	TargetDate string // YYYY-MM-DD
	Selection  dm.Selection
	// ProgressCallback 每完成一个条目回调一次（completed 单调递增）
	ProgressCallback func(completed, total int)
}

// Run 执行一次分析运行。预言机失败只影响对应条目（记 0 分并保留错误详情），
// 持久化失败则立即中止整个运行，已落库的前缀保持有效。
// 主动取消在条目之间生效：未处理的条目标记为 cancelled，不会凭空造分。
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*dm.RunSummary, error) {
	if opts.CompanyID == "" {
		return nil, fmt.Errorf("%w: company id is empty", ErrInvalidArgument)
	}
	// 日期必须是合法的 YYYY-MM-DD。上游表单通常已校验过，这里仍防御性拒绝。
	if opts.TargetDate == "" {
		return nil, fmt.Errorf("%w: target date is empty", ErrInvalidArgument)
	}
	if _, err := time.Parse(time.DateOnly, opts.TargetDate); err != nil {
		return nil, fmt.Errorf("%w: bad target date %q", ErrInvalidArgument, opts.TargetDate)
	}
	if opts.Selection.Mode == "" {
		opts.Selection.Mode = dm.SelectAll
	}

	cat, err := catalog.Load(ctx, e.store, opts.CompanyID)
	if err != nil {
		return nil, err
	}
	items, err := cat.Select(opts.Selection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	summary := &dm.RunSummary{
		CompanyID:  opts.CompanyID,
		TargetDate: opts.TargetDate,
		Selection:  opts.Selection,
		State:      dm.RunRunning,
		DemoMode:   e.oracle.Demo(),
		Total:      len(items),
		Items:      make(map[int]*dm.ItemStatus, len(items)),
	}
	for _, it := range items {
		summary.Items[it.SequenceNumber] = &dm.ItemStatus{
			Seq:           it.SequenceNumber,
			Category:      it.Category,
			PromptExcerpt: dm.Excerpt(it.PromptText, 50),
			Status:        dm.StatusPending,
		}
	}

	logger.Log.Infof("开始分析运行 [%s] 日期=%s 条目数=%d 并发=%d demo=%v",
		opts.CompanyID, opts.TargetDate, len(items), e.workers, summary.DemoMode)

	if len(items) == 0 {
		summary.State = dm.RunCompleted
		summary.Progress = 1.0
		return summary, nil
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
		storeErr  error
	)

	// 持久化失败是致命的：记录第一个错误并让其余条目尽快收尾
	failStore := func(err error) {
		mu.Lock()
		if storeErr == nil {
			storeErr = err
		}
		mu.Unlock()
		cancelRun()
	}

	finishItem := func(seq int, apply func(st *dm.ItemStatus)) {
		mu.Lock()
		defer mu.Unlock()
		st := summary.Items[seq]
		apply(st)
		switch st.Status {
		case dm.StatusSuccess:
			summary.Succeeded++
		case dm.StatusError:
			summary.Failed++
		case dm.StatusCancelled:
			summary.Cancelled++
			return // 取消不算完成，不推进进度
		}
		completed++
		summary.Progress = float64(completed) / float64(summary.Total)
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(completed, summary.Total)
		}
	}

	jobs := make(chan dm.AnalysisItem)
	workers := e.workers
	if workers > len(items) {
		workers = len(items)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range jobs {
				e.processItem(runCtx, it, opts.TargetDate, finishItem, failStore)
			}
		}()
	}

	for _, it := range items {
		jobs <- it
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	switch {
	case storeErr != nil:
		summary.State = dm.RunAborted
		logger.Log.Errorf("分析运行中止 [%s]：持久化失败: %v", opts.CompanyID, storeErr)
		return summary, fmt.Errorf("持久化打分结果失败: %w", storeErr)
	case ctx.Err() != nil:
		summary.State = dm.RunCancelled
		logger.Log.Warnf("分析运行被取消 [%s]：成功 %d / 失败 %d / 取消 %d",
			opts.CompanyID, summary.Succeeded, summary.Failed, summary.Cancelled)
		return summary, nil
	default:
		// 全部条目打分失败也算完成：失败是条目级别的，不是运行级别的
		summary.State = dm.RunCompleted
		logger.Log.Infof("分析运行完成 [%s]：成功 %d / 失败 %d", opts.CompanyID, summary.Succeeded, summary.Failed)
		return summary, nil
	}
}

// processItem 处理单个条目：打分、落库、更新状态
func (e *Engine) processItem(
	ctx context.Context,
	it dm.AnalysisItem,
	targetDate string,
	finishItem func(seq int, apply func(st *dm.ItemStatus)),
	failStore func(err error),
) {
	// 取消检查只在条目之间做，不打断进行中的预言机调用
	if ctx.Err() != nil {
		finishItem(it.SequenceNumber, func(st *dm.ItemStatus) {
			st.Status = dm.StatusCancelled
		})
		return
	}

	raw, err := e.oracle.Score(ctx, it.PromptText, targetDate)
	if err != nil {
		// 取消落在预言机调用中间时按取消处理，不写零分行
		if ctx.Err() != nil {
			finishItem(it.SequenceNumber, func(st *dm.ItemStatus) {
				st.Status = dm.StatusCancelled
			})
			return
		}
		oe := oracle.Classify(err)
		logger.Log.Errorf("条目打分失败 [%s #%d]: %s", it.CompanyID, it.SequenceNumber, oe.Error())

		// 失败条目以 0 分入库：聚合时它存在但贡献为零，而不是悄悄缺席
		zero := dm.ScoreResult{
			CompanyID: it.CompanyID,
			ItemSeq:   it.SequenceNumber,
			Category:  it.Category,
			Date:      targetDate,
		}
		if serr := e.store.AppendResult(ctx, zero); serr != nil {
			if ctx.Err() == nil {
				failStore(serr)
			}
			finishItem(it.SequenceNumber, func(st *dm.ItemStatus) {
				st.Status = dm.StatusCancelled
				st.ErrorMessage = serr.Error()
			})
			return
		}
		finishItem(it.SequenceNumber, func(st *dm.ItemStatus) {
			st.Status = dm.StatusError
			st.ErrorType = string(oe.Type)
			st.ErrorMessage = oe.Message
		})
		return
	}

	result := dm.ScoreResult{
		CompanyID:     it.CompanyID,
		ItemSeq:       it.SequenceNumber,
		Category:      it.Category,
		Date:          targetDate,
		RawScore:      raw,
		WeightedScore: float64(raw) * it.Weight, // 加权分只在写入时由 raw*weight 算出
	}
	if serr := e.store.AppendResult(ctx, result); serr != nil {
		if ctx.Err() == nil {
			failStore(serr)
		}
		finishItem(it.SequenceNumber, func(st *dm.ItemStatus) {
			st.Status = dm.StatusCancelled
			st.ErrorMessage = serr.Error()
		})
		return
	}

	finishItem(it.SequenceNumber, func(st *dm.ItemStatus) {
		st.Status = dm.StatusSuccess
		st.RawScore = raw
		st.WeightedScore = result.WeightedScore
	})
}
