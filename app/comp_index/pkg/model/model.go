package model

import (
	"fmt"
	"sort"
)

// 原始评分的取值边界，所有打分结果都被限制在 [-3, 3] 的整数区间内
const (
	RawScoreMin = -3
	RawScoreMax = 3
)

// ClampRawScore 把可解析但越界的评分收敛到合法区间
func ClampRawScore(v int) int {
	if v < RawScoreMin {
		return RawScoreMin
	}
	if v > RawScoreMax {
		return RawScoreMax
	}
	return v
}

// AnalysisItem 竞争力分析条目：属于某公司、某类别的一道带权重的分析题
type AnalysisItem struct {
	ID             int
	CompanyID      string
	SequenceNumber int     // 公司内唯一，跨运行的稳定键
	Category       string  // 类别标签，例如 "I. 内部因素"
	PromptText     string  // 提问文本，交给打分方判断
	Weight         float64 // 有符号权重，不要求归一化
	GeneralRule    string  // 方向性说明，仅供人读，引擎不解析
}

// ScoreResult 单个条目在某一天的打分结果。只追加，写入后不再修改。
type ScoreResult struct {
	CompanyID     string
	ItemSeq       int
	Category      string // 打分时刻的类别快照，条目后续改类不回填
	Date          string // YYYY-MM-DD，无时间部分
	RawScore      int    // [-3, 3]
	WeightedScore float64
}

// ItemState 单条目在一次运行中的状态
type ItemState string

const (
	StatusPending   ItemState = "pending"
	StatusSuccess   ItemState = "success"
	StatusError     ItemState = "error"
	StatusCancelled ItemState = "cancelled"
)

// ItemStatus 单条目的运行状态明细。error 状态下保留完整的错误上下文，
// 供"查看错误详情"之类的调用方使用。
type ItemStatus struct {
	Seq           int       `json:"seq"`
	Category      string    `json:"category"`
	PromptExcerpt string    `json:"prompt_excerpt"`
	Status        ItemState `json:"status"`
	RawScore      int       `json:"raw_score"`
	WeightedScore float64   `json:"weighted_score"`
	ErrorType     string    `json:"error_type,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// Selection 运行的条目选择方式
type Selection struct {
	Mode            string   `json:"mode"` // all | category | item
	Categories      []string `json:"categories,omitempty"`
	SequenceNumbers []int    `json:"sequence_numbers,omitempty"`
}

// 选择模式
const (
	SelectAll      = "all"
	SelectCategory = "category"
	SelectItem     = "item"
)

// Validate 校验选择方式是否合法
func (s Selection) Validate() error {
	switch s.Mode {
	case SelectAll:
		return nil
	case SelectCategory:
		if len(s.Categories) == 0 {
			return fmt.Errorf("selection mode %q requires categories", s.Mode)
		}
		return nil
	case SelectItem:
		if len(s.SequenceNumbers) == 0 {
			return fmt.Errorf("selection mode %q requires sequence numbers", s.Mode)
		}
		return nil
	default:
		return fmt.Errorf("unknown selection mode %q", s.Mode)
	}
}

// RunState 一次分析运行的整体状态机
type RunState string

const (
	RunNotStarted RunState = "not_started"
	RunRunning    RunState = "running"
	RunCompleted  RunState = "completed"
	RunCancelled  RunState = "cancelled"
	RunAborted    RunState = "aborted" // 持久化失败导致的中止
)

// RunSummary 一次分析运行的结果汇总。运行结束后不落库，
// 只有其产生的 ScoreResult 记录是持久的。
type RunSummary struct {
	CompanyID  string              `json:"company_id"`
	TargetDate string              `json:"target_date"`
	Selection  Selection           `json:"selection"`
	State      RunState            `json:"state"`
	DemoMode   bool                `json:"demo_mode"` // 打分来自降级的伪随机预言机
	Total      int                 `json:"total"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	Cancelled  int                 `json:"cancelled"`
	Progress   float64             `json:"progress"` // [0,1]，运行期间单调不减
	Items      map[int]*ItemStatus `json:"items"`    // 以条目序号为键
}

// FailedItems 按序号升序返回所有失败条目的明细
func (r *RunSummary) FailedItems() []*ItemStatus {
	var failed []*ItemStatus
	for _, st := range r.Items {
		if st.Status == StatusError {
			failed = append(failed, st)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Seq < failed[j].Seq })
	return failed
}

// Excerpt 截取提问文本的前缀用于状态展示
func Excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
