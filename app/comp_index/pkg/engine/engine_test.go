package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/aggregate"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/logger"
	dm "github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/oracle"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/storage"
)

func TestMain(m *testing.M) {
	// 引擎内部打日志，跑测试前先把全局日志初始化掉
	if err := logger.InitLogger("fatal", ""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeOracle 可编程的打分预言机
type fakeOracle struct {
	scoreFn func(promptText string) (int, error)
	demo    bool
}

func (f *fakeOracle) Score(_ context.Context, promptText, _ string) (int, error) {
	return f.scoreFn(promptText)
}

func (f *fakeOracle) Demo() bool { return f.demo }

// failingStore 在追加结果时返回固定错误的存储
type failingStore struct {
	*storage.Memory
	appendErr error
}

func (s *failingStore) AppendResult(ctx context.Context, r dm.ScoreResult) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.Memory.AppendResult(ctx, r)
}

func newTestStore() *storage.Memory {
	store := storage.NewMemory()
	store.AddItems(
		dm.AnalysisItem{CompanyID: "acme", SequenceNumber: 1, Category: "I. 内部因素", PromptText: "q1", Weight: 0.5},
		dm.AnalysisItem{CompanyID: "acme", SequenceNumber: 2, Category: "I. 内部因素", PromptText: "q2", Weight: -0.3},
		dm.AnalysisItem{CompanyID: "acme", SequenceNumber: 3, Category: "II. 外部因素", PromptText: "q3", Weight: 0.2},
	)
	return store
}

// scoreByPrompt 按提问文本返回固定评分
func scoreByPrompt(scores map[string]int) func(string) (int, error) {
	return func(p string) (int, error) {
		s, ok := scores[p]
		if !ok {
			return 0, fmt.Errorf("unexpected prompt %q", p)
		}
		return s, nil
	}
}

const testDate = "2026-08-31"

func TestRunHappyPath(t *testing.T) {
	store := newTestStore()
	orc := &fakeOracle{scoreFn: scoreByPrompt(map[string]int{"q1": 2, "q2": -1, "q3": 3})}
	eng := NewEngine(store, orc, 2)

	var lastCompleted int
	summary, err := eng.Run(context.Background(), RunOptions{
		CompanyID:  "acme",
		TargetDate: testDate,
		ProgressCallback: func(completed, total int) {
			if completed <= lastCompleted {
				t.Errorf("进度应单调递增: %d -> %d", lastCompleted, completed)
			}
			if total != 3 {
				t.Errorf("total = %d, want 3", total)
			}
			lastCompleted = completed
		},
	})
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if summary.State != dm.RunCompleted {
		t.Errorf("State = %s, want %s", summary.State, dm.RunCompleted)
	}
	if summary.Succeeded != 3 || summary.Failed != 0 {
		t.Errorf("Succeeded/Failed = %d/%d, want 3/0", summary.Succeeded, summary.Failed)
	}
	if summary.Progress != 1.0 {
		t.Errorf("Progress = %f, want 1.0", summary.Progress)
	}
	if summary.DemoMode {
		t.Error("非演示预言机不应标记 DemoMode")
	}

	// 综合指数 = 2*0.5 + (-1)*(-0.3) + 3*0.2 = 1.9
	agg := aggregate.NewAggregator(store)
	composite, ok, err := agg.CompositeIndex(context.Background(), "acme", testDate)
	if err != nil || !ok {
		t.Fatalf("CompositeIndex: ok=%v err=%v", ok, err)
	}
	if diff := composite - 1.9; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("composite = %f, want 1.9", composite)
	}
}

func TestRunOracleFailureWritesZeroRow(t *testing.T) {
	store := newTestStore()
	orc := &fakeOracle{scoreFn: func(p string) (int, error) {
		if p == "q2" {
			return 0, oracle.NewOracleError(oracle.ErrTypeQuota, "quota exhausted")
		}
		return 1, nil
	}}
	eng := NewEngine(store, orc, 1)

	summary, err := eng.Run(context.Background(), RunOptions{CompanyID: "acme", TargetDate: testDate})
	if err != nil {
		t.Fatalf("条目级失败不应让运行报错: %v", err)
	}
	if summary.State != dm.RunCompleted {
		t.Errorf("State = %s, want %s", summary.State, dm.RunCompleted)
	}
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("Succeeded/Failed = %d/%d, want 2/1", summary.Succeeded, summary.Failed)
	}

	st := summary.Items[2]
	if st.Status != dm.StatusError {
		t.Fatalf("条目 2 状态 = %s, want %s", st.Status, dm.StatusError)
	}
	if st.ErrorType != string(oracle.ErrTypeQuota) {
		t.Errorf("ErrorType = %s, want %s", st.ErrorType, oracle.ErrTypeQuota)
	}

	// 失败条目以 0 分入库，行数不缺
	rows, _ := store.ResultsByCompanyAndDate(context.Background(), "acme", testDate)
	if len(rows) != 3 {
		t.Fatalf("结果行数 = %d, want 3", len(rows))
	}
	for _, r := range rows {
		if r.ItemSeq == 2 && (r.RawScore != 0 || r.WeightedScore != 0) {
			t.Errorf("失败条目应记 0 分, got raw=%d weighted=%f", r.RawScore, r.WeightedScore)
		}
	}
}

func TestRunAllItemsFailStillCompletes(t *testing.T) {
	store := newTestStore()
	orc := &fakeOracle{scoreFn: func(string) (int, error) {
		return 0, oracle.NewOracleError(oracle.ErrTypeNetwork, "connection refused")
	}}
	eng := NewEngine(store, orc, 2)

	summary, err := eng.Run(context.Background(), RunOptions{CompanyID: "acme", TargetDate: testDate})
	if err != nil {
		t.Fatalf("全员失败仍应正常完成: %v", err)
	}
	if summary.State != dm.RunCompleted {
		t.Errorf("State = %s, want %s", summary.State, dm.RunCompleted)
	}
	if summary.Failed != 3 || summary.Progress != 1.0 {
		t.Errorf("Failed=%d Progress=%f, want 3 / 1.0", summary.Failed, summary.Progress)
	}
	if got := len(summary.FailedItems()); got != 3 {
		t.Errorf("FailedItems = %d, want 3", got)
	}
}

func TestRunRerunIsAdditive(t *testing.T) {
	store := newTestStore()
	orc := &fakeOracle{scoreFn: scoreByPrompt(map[string]int{"q1": 2, "q2": -1, "q3": 3})}
	eng := NewEngine(store, orc, 1)

	for i := 0; i < 2; i++ {
		if _, err := eng.Run(context.Background(), RunOptions{CompanyID: "acme", TargetDate: testDate}); err != nil {
			t.Fatalf("第 %d 次运行失败: %v", i+1, err)
		}
	}

	rows, _ := store.ResultsByCompanyAndDate(context.Background(), "acme", testDate)
	if len(rows) != 6 {
		t.Fatalf("重跑应追加而不是覆盖, 行数 = %d, want 6", len(rows))
	}

	// 同日重跑后综合指数翻倍
	agg := aggregate.NewAggregator(store)
	composite, _, _ := agg.CompositeIndex(context.Background(), "acme", testDate)
	if diff := composite - 3.8; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("composite = %f, want 3.8", composite)
	}
}

func TestRunInvalidArguments(t *testing.T) {
	eng := NewEngine(newTestStore(), &fakeOracle{scoreFn: func(string) (int, error) { return 0, nil }}, 1)

	cases := []RunOptions{
		{CompanyID: "", TargetDate: testDate},
		{CompanyID: "acme", TargetDate: ""},
		{CompanyID: "acme", TargetDate: "2026/08/31"},
		{CompanyID: "acme", TargetDate: testDate, Selection: dm.Selection{Mode: "nonsense"}},
	}
	for _, opts := range cases {
		if _, err := eng.Run(context.Background(), opts); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Run(%+v) err = %v, want ErrInvalidArgument", opts, err)
		}
	}
}

func TestRunStoreFailureAborts(t *testing.T) {
	store := &failingStore{Memory: newTestStore(), appendErr: fmt.Errorf("disk full")}
	orc := &fakeOracle{scoreFn: func(string) (int, error) { return 1, nil }}
	eng := NewEngine(store, orc, 1)

	summary, err := eng.Run(context.Background(), RunOptions{CompanyID: "acme", TargetDate: testDate})
	if err == nil {
		t.Fatal("持久化失败应当让运行报错")
	}
	if summary.State != dm.RunAborted {
		t.Errorf("State = %s, want %s", summary.State, dm.RunAborted)
	}
}

func TestRunCancellation(t *testing.T) {
	store := newTestStore()
	orc := &fakeOracle{scoreFn: func(string) (int, error) { return 1, nil }}
	eng := NewEngine(store, orc, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 运行开始前就取消

	summary, err := eng.Run(ctx, RunOptions{CompanyID: "acme", TargetDate: testDate})
	if err != nil {
		t.Fatalf("主动取消不算错误: %v", err)
	}
	if summary.State != dm.RunCancelled {
		t.Errorf("State = %s, want %s", summary.State, dm.RunCancelled)
	}
	if summary.Cancelled != 3 || summary.Succeeded != 0 {
		t.Errorf("Cancelled/Succeeded = %d/%d, want 3/0", summary.Cancelled, summary.Succeeded)
	}
	// 取消的条目不落库
	rows, _ := store.ResultsByCompanyAndDate(context.Background(), "acme", testDate)
	if len(rows) != 0 {
		t.Errorf("取消的条目不应产生结果行, got %d", len(rows))
	}
}

// cancellingOracle 在第一次被调用时取消整个运行，并带着 ctx 错误返回
type cancellingOracle struct {
	cancel context.CancelFunc
}

func (o *cancellingOracle) Score(ctx context.Context, _, _ string) (int, error) {
	o.cancel()
	return 0, ctx.Err()
}

func (o *cancellingOracle) Demo() bool { return false }

func TestRunCancellationMidCall(t *testing.T) {
	store := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	eng := NewEngine(store, &cancellingOracle{cancel: cancel}, 1)

	summary, err := eng.Run(ctx, RunOptions{CompanyID: "acme", TargetDate: testDate})
	if err != nil {
		t.Fatalf("主动取消不算错误: %v", err)
	}
	if summary.State != dm.RunCancelled {
		t.Errorf("State = %s, want %s", summary.State, dm.RunCancelled)
	}
	if summary.Cancelled != 3 || summary.Failed != 0 {
		t.Errorf("Cancelled/Failed = %d/%d, want 3/0", summary.Cancelled, summary.Failed)
	}
	// 调用中途被取消的条目不应记成错误、也不应留下零分行
	rows, _ := store.ResultsByCompanyAndDate(context.Background(), "acme", testDate)
	if len(rows) != 0 {
		t.Errorf("取消的条目不应产生结果行, got %d", len(rows))
	}
}

func TestRunSelectionSubset(t *testing.T) {
	store := newTestStore()
	orc := &fakeOracle{scoreFn: func(string) (int, error) { return 2, nil }}
	eng := NewEngine(store, orc, 1)

	summary, err := eng.Run(context.Background(), RunOptions{
		CompanyID:  "acme",
		TargetDate: testDate,
		Selection:  dm.Selection{Mode: dm.SelectItem, SequenceNumbers: []int{1, 3}},
	})
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if summary.Total != 2 || summary.Succeeded != 2 {
		t.Errorf("Total/Succeeded = %d/%d, want 2/2", summary.Total, summary.Succeeded)
	}
	if _, ok := summary.Items[2]; ok {
		t.Error("未选中的条目不应出现在汇总里")
	}
}

func TestRunEmptyCatalog(t *testing.T) {
	store := storage.NewMemory()
	orc := &fakeOracle{scoreFn: func(string) (int, error) { return 0, nil }}
	eng := NewEngine(store, orc, 1)

	summary, err := eng.Run(context.Background(), RunOptions{CompanyID: "ghost", TargetDate: testDate})
	if err != nil {
		t.Fatalf("空目录运行失败: %v", err)
	}
	if summary.State != dm.RunCompleted || summary.Progress != 1.0 {
		t.Errorf("空目录应直接完成, State=%s Progress=%f", summary.State, summary.Progress)
	}
}

func TestRunDemoModeFlag(t *testing.T) {
	store := newTestStore()
	eng := NewEngine(store, oracle.NewDemo(1), 1)

	summary, err := eng.Run(context.Background(), RunOptions{CompanyID: "acme", TargetDate: testDate})
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if !summary.DemoMode {
		t.Error("演示预言机驱动的运行应标记 DemoMode")
	}
}
