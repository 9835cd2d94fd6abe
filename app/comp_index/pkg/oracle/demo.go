package oracle

import (
	"context"
	"math/rand"
	"sync"

	dm "github.com/iWorld-y/comp_index/app/comp_index/pkg/model"
)

// DemoOracle 降级模式的伪随机预言机。没有 LLM 凭证的环境用它代替真实打分，
// 让整条流水线仍然可以运行。它是独立类型而不是生产预言机里的分支，
// 生产路径不可能误入演示逻辑；运行汇总的 DemoMode 标记来自 Demo()。
type DemoOracle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDemo 创建演示预言机
func NewDemo(seed int64) *DemoOracle {
	return &DemoOracle{rng: rand.New(rand.NewSource(seed))}
}

func (d *DemoOracle) Demo() bool { return true }

// Score 返回 [-3, 3] 内的伪随机整数
func (d *DemoOracle) Score(_ context.Context, _ string, _ string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Intn(dm.RawScoreMax-dm.RawScoreMin+1) + dm.RawScoreMin, nil
}
