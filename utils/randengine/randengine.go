// 随机数引擎，包装了golang.org/x/exp/rand，用于生成可复现的随机场景
package randengine

import (
	"flag"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成

	log = logrus.WithField("module", "randengine")
)

// Engine 随机数引擎（非线程安全）
type Engine struct {
	*rand.Rand
}

// New 创建随机数引擎
// 参数：seed-随机数种子，实际种子为seed加上命令行给出的偏移量
// 说明：相同种子产生相同的随机序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// DiscreteDistribution 按给定权重抽取下标
// 功能：根据权重数组生成离散分布的随机数
// 参数：weight-非负权重，至少一个为正
// 返回：[0, len(weight))中的下标
// 算法说明：在[0, 总权重)中取随机数，返回累积权重首次超过它的下标
func (e *Engine) DiscreteDistribution(weight []float64) int {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return i
		}
	}
	log.Panicf("DiscreteDistribution: sum: %f random: %f", sum, random)
	return -1
}

// PTrue 以概率p返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Choice 等概率选取一个元素，items不能为空
func Choice[T any](e *Engine, items []T) T {
	return items[e.Intn(len(items))]
}
