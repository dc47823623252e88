package utils

import (
	"math/rand/v2"

	"github.com/sysu-ecnc-dev/ga-lab/internal/allocation"
	"github.com/sysu-ecnc-dev/ga-lab/internal/tower"
)

// GenerateRandomNumbers 生成分配问题的输入，数字均匀分布在 [lo, hi) 内并保留两位小数
func GenerateRandomNumbers(rng *rand.Rand, lo, hi float64) []float64 {
	numbers := make([]float64, allocation.Size)
	for i := range numbers {
		x := lo + rng.Float64()*(hi-lo)
		numbers[i] = float64(int(x*100)) / 100
	}
	return numbers
}

// GenerateRandomIntegers 生成分配问题的整数输入，数字均匀分布在 [lo, hi] 内
func GenerateRandomIntegers(rng *rand.Rand, lo, hi int) []float64 {
	numbers := make([]float64, allocation.Size)
	for i := range numbers {
		numbers[i] = float64(lo + rng.IntN(hi-lo+1))
	}
	return numbers
}

// GenerateRandomPieces 生成塔问题的输入：若干门、墙、瞭望台，顺序随机
func GenerateRandomPieces(rng *rand.Rand, doors, walls, lookouts, maxWidth, maxStrength, maxCost int) []tower.Piece {
	kinds := make([]tower.Kind, 0, doors+walls+lookouts)
	for range doors {
		kinds = append(kinds, tower.KindDoor)
	}
	for range walls {
		kinds = append(kinds, tower.KindWall)
	}
	for range lookouts {
		kinds = append(kinds, tower.KindLookout)
	}

	// 用 Fisher-Yates 洗牌算法打乱构件顺序
	for i := len(kinds) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		kinds[i], kinds[j] = kinds[j], kinds[i]
	}

	pieces := make([]tower.Piece, len(kinds))
	for i, kind := range kinds {
		pieces[i] = tower.Piece{
			ID:       i,
			Kind:     kind,
			Width:    rng.IntN(maxWidth) + 1,
			Strength: rng.IntN(maxStrength + 1),
			Cost:     rng.IntN(maxCost + 1),
		}
	}
	return pieces
}
