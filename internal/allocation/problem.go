package allocation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
)

var ErrRepairImbalance = errors.New("修复时多余数字与缺失数字的数量不一致")

// Problem: 把 40 个数字分配到 4 个箱子中
type Problem struct {
	values      []float64
	occurrences Occurrences
}

func NewProblem(values []float64) (*Problem, error) {
	if len(values) != Size {
		return nil, &domain.InputError{Err: fmt.Errorf("需要恰好 %d 个数字，实际读到 %d 个", Size, len(values))}
	}
	return &Problem{
		values:      slices.Clone(values),
		occurrences: NewOccurrences(values),
	}, nil
}

func (p *Problem) Occurrences() Occurrences {
	return p.occurrences
}

// Random 打乱输入后按行填入网格
func (p *Problem) Random(rng *rand.Rand) Grid {
	values := slices.Clone(p.values)
	rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
	return reshape(values)
}

/**
 * 计算适应度
 * fitness = product(bin0) + sum(bin1) + (max(bin2) - min(bin2))
 * 结果为负时记为 0，第 3 个箱子不参与计分
 */
func (p *Problem) Fitness(g Grid) float64 {
	product := 1.0
	for _, x := range g[0] {
		product *= x
	}

	sum := 0.0
	for _, x := range g[1] {
		sum += x
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range g[2] {
		lo = min(lo, x)
		hi = max(hi, x)
	}

	score := product + sum + (hi - lo)
	if score > 0 {
		return score
	}
	return 0
}

// Clone 网格是数组，按值传递即为拷贝
func (p *Problem) Clone(g Grid) Grid {
	return g
}

// Crossover 第 i 个子代复制第 i 个父本，并用下一个父本（循环）的第 0 行和第 2 行覆盖，然后修复
func (p *Problem) Crossover(parents []Grid, rng *rand.Rand) ([]Grid, error) {
	offspring := make([]Grid, len(parents))
	for i := range parents {
		next := parents[(i+1)%len(parents)]
		offspring[i] = parents[i]
		offspring[i][0] = next[0]
		offspring[i][2] = next[2]
	}

	for i := range offspring {
		if err := p.repair(&offspring[i], rng); err != nil {
			return nil, err
		}
	}

	return offspring, nil
}

// repair 把出现次数过多的数字随机替换成出现次数不足的数字，使计数重新与输入一致
func (p *Problem) repair(g *Grid, rng *rand.Rand) error {
	actual := NewOccurrences(g.Values())

	var surplus, deficit []float64
	for _, v := range p.occurrences.keys {
		need := p.occurrences.Count(v) - actual.Count(v)
		switch {
		case need > 0:
			deficit = appendRepeated(deficit, v, need)
		case need < 0:
			surplus = appendRepeated(surplus, v, -need)
		}
	}
	// 输入中不存在的数字全部算作多余
	for _, v := range actual.keys {
		if p.occurrences.Count(v) == 0 {
			surplus = appendRepeated(surplus, v, actual.Count(v))
		}
	}

	if len(surplus) != len(deficit) {
		return fmt.Errorf("%w: 多余 %d 个，缺失 %d 个", ErrRepairImbalance, len(surplus), len(deficit))
	}

	rng.Shuffle(len(surplus), func(i, j int) {
		surplus[i], surplus[j] = surplus[j], surplus[i]
	})
	rng.Shuffle(len(deficit), func(i, j int) {
		deficit[i], deficit[j] = deficit[j], deficit[i]
	})

	for len(deficit) > 0 {
		few := deficit[len(deficit)-1]
		many := surplus[len(surplus)-1]
		deficit = deficit[:len(deficit)-1]
		surplus = surplus[:len(surplus)-1]

		cells := g.cellsOf(many)
		if len(cells) == 0 {
			return fmt.Errorf("%w: 网格中找不到多余的数字 %v", ErrRepairImbalance, many)
		}
		cell := cells[rng.IntN(len(cells))]
		g[cell[0]][cell[1]] = few
	}

	return nil
}

func appendRepeated(dst []float64, v float64, n int) []float64 {
	for range n {
		dst = append(dst, v)
	}
	return dst
}

// Mutate 交换位于不同箱子中的两个数字
func (p *Problem) Mutate(grids []Grid, i int, _ func(int) bool, rng *rand.Rand) {
	r1 := rng.IntN(Rows)
	r2 := rng.IntN(Rows - 1)
	if r2 >= r1 {
		r2++
	}
	c1, c2 := rng.IntN(Cols), rng.IntN(Cols)

	g := &grids[i]
	g[r1][c1], g[r2][c2] = g[r2][c2], g[r1][c1]
}
