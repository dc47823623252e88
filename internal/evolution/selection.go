package evolution

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

var (
	ErrZeroFitness      = errors.New("选择池的总适应度为零，无法构造选择概率")
	ErrUnboundedFitness = errors.New("适应度溢出为无穷大或非数，无法构造选择概率")
	ErrPoolTooSmall     = errors.New("选择池中的个体少于两个")
	ErrSpinFailed       = errors.New("轮盘赌多次未能选出个体")
)

// 浮点误差导致指针落空时最多重转的次数
const maxSpins = 16

// SelectParents 使用轮盘赌从 pool 中选出两个下标不同的父本。
// 第二个父本在去掉第一个父本后的轮盘上选出，与反复重抽直到不同的分布一致。
func SelectParents[G any](pool Population[G], rng *rand.Rand) (int, int, error) {
	if len(pool) < 2 {
		return 0, 0, ErrPoolTooSmall
	}

	weights := make([]float64, len(pool))
	total := 0.0
	weighted := 0
	for i, ind := range pool {
		w := math.Abs(ind.Fitness)
		if !isFinite(w) {
			return 0, 0, fmt.Errorf("%w: 第 %d 个个体的适应度为 %v", ErrUnboundedFitness, i, ind.Fitness)
		}
		if w > 0 {
			weighted++
		}
		weights[i] = w
		total += w
	}

	if math.IsInf(total, 0) {
		return 0, 0, fmt.Errorf("%w: 总适应度溢出", ErrUnboundedFitness)
	}
	if total == 0 {
		return 0, 0, ErrZeroFitness
	}
	// 只有一个个体有权重时，第二个父本永远抽不出来
	if weighted < 2 {
		return 0, 0, fmt.Errorf("%w: 只有 %d 个个体的适应度非零", ErrZeroFitness, weighted)
	}

	first, err := spin(weights, -1, rng)
	if err != nil {
		return 0, 0, err
	}
	second, err := spin(weights, first, rng)
	if err != nil {
		return 0, 0, err
	}

	return first, second, nil
}

// spin 转一次轮盘，skip 对应的个体不参与，返回第一个累计值大于指针的位置
func spin(weights []float64, skip int, rng *rand.Rand) (int, error) {
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if i != skip {
			total += w
		}
		cumulative[i] = total
	}

	for range maxSpins {
		pick := rng.Float64() * total
		i := sort.Search(len(cumulative), func(i int) bool {
			return cumulative[i] > pick
		})
		// 浮点误差可能让指针落在末尾之外，重新转
		if i < len(cumulative) && i != skip {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: 总权重 %v", ErrSpinFailed, total)
}

func isFinite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}
