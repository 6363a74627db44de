package fighter

import (
	"math/rand/v2"
)

// Rand 战斗和掉落的随机源。服务端只用一个带种子的实例，测试固定种子即可复现。
type Rand interface {
	IntN(n int) int
	Float64() float64
}

func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Range 闭区间 [min, max]，max<=min 时返回 min。
func Range(r Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.IntN(max-min+1)
}
