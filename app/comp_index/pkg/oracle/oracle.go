package oracle

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/comp_index/app/comp_index/pkg/config"
	"github.com/iWorld-y/comp_index/app/comp_index/pkg/logger"
	dm "github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
)

// Oracle 打分预言机契约：给定条目的提问文本和目标日期，
// 返回 [-3, 3] 内的一个整数评分。
type Oracle interface {
	Score(ctx context.Context, promptText, targetDate string) (int, error)
	// Demo 标识是否为降级的伪随机预言机，调用方据此区分真实分析和占位分析
	Demo() bool
}

// 默认策略参数
const (
	defaultMaxRetries   = 3
	defaultCallInterval = 100 * time.Millisecond
	baseRetryDelay      = 2 * time.Second
)

// 提取响应中第一个带符号整数
var intPattern = regexp.MustCompile(`[-+]?\d+`)

// LLMOracle 基于 LLM 的打分预言机
type LLMOracle struct {
	chatModel    model.ChatModel
	limiter      *rate.Limiter
	maxRetries   int
	callInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// New 根据配置创建预言机。未配置 API Key 时降级为伪随机预言机，
// 保证没有凭证的环境也能跑通整条流水线。
func New(ctx context.Context, cfg *config.Config) (Oracle, error) {
	if cfg.LLM.APIKey == "" {
		logger.Log.Warn("未配置 LLM API Key，使用伪随机演示预言机，产出的是占位分析而非真实分析")
		return NewDemo(time.Now().UnixNano()), nil
	}
	return NewLLM(ctx, cfg)
}

// NewLLM 创建 LLM 预言机实例
func NewLLM(ctx context.Context, cfg *config.Config) (*LLMOracle, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	// 初始化限流器
	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Concurrency.QPS
	if burst <= 0 {
		burst = 1
	}

	maxRetries := cfg.Scoring.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	callInterval := defaultCallInterval
	if cfg.Scoring.CallIntervalMs > 0 {
		callInterval = time.Duration(cfg.Scoring.CallIntervalMs) * time.Millisecond
	}

	return &LLMOracle{
		chatModel:    chatModel,
		limiter:      rate.NewLimiter(limit, burst),
		maxRetries:   maxRetries,
		callInterval: callInterval,
	}, nil
}

func (o *LLMOracle) Demo() bool { return false }

// Score 调用 LLM 为单个条目打分
func (o *LLMOracle) Score(ctx context.Context, promptText, targetDate string) (int, error) {
	o.pace()

	prompt := fmt.Sprintf(`你是一个企业竞争力分析师。请针对以下分析条目，结合截至 %s 的情况给出方向性评分。

分析条目：%s

评分说明：评分为 -3 到 3 之间的整数，-3 表示极度不利，0 表示中性，3 表示极度有利。
请只输出这个整数，不要输出其他内容。`, targetDate, promptText)

	var lastErr error
	for i := 0; i <= o.maxRetries; i++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return 0, Classify(err)
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: "你只输出一个整数。"},
			{Role: schema.User, Content: prompt},
		}

		resp, err := o.chatModel.Generate(ctx, messages)
		if err != nil {
			oe := Classify(err)
			if oe.Type == ErrTypeRateLimit && i < o.maxRetries {
				lastErr = oe
				time.Sleep(baseRetryDelay * time.Duration(1<<i))
				continue
			}
			return 0, oe
		}

		return ParseScore(resp.Content)
	}
	return 0, lastErr
}

// pace 保证相邻两次调用之间留出最小间隔，避免打满上游限额
func (o *LLMOracle) pace() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if wait := o.callInterval - time.Since(o.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	o.lastCall = time.Now()
}

// ParseScore 从响应文本中提取评分。取第一个整数子串，
// 可解析但越界的值收敛到 [-3, 3]；完全不含整数按 MALFORMED_RESPONSE 处理，
// 绝不默默落到 0。
func ParseScore(content string) (int, error) {
	cleanContent := strings.TrimSpace(content)
	cleanContent = strings.TrimPrefix(cleanContent, "```json")
	cleanContent = strings.TrimPrefix(cleanContent, "```")
	cleanContent = strings.TrimSuffix(cleanContent, "```")

	match := intPattern.FindString(cleanContent)
	if match == "" {
		return 0, NewOracleError(ErrTypeMalformed, "响应中不含整数评分: %q", dm.Excerpt(content, 80))
	}

	v, err := strconv.Atoi(match)
	if err != nil {
		return 0, NewOracleError(ErrTypeMalformed, "评分解析失败 %q: %v", match, err)
	}
	return dm.ClampRawScore(v), nil
}
