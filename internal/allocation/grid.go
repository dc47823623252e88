package allocation

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

const (
	Rows = 4
	Cols = 10
	Size = Rows * Cols
)

// Grid: 四个箱子，每行一个箱子。第 0 行求积，第 1 行求和，第 2 行求极差，第 3 行不计分
type Grid [Rows][Cols]float64

// Values 按行展开所有数字
func (g Grid) Values() []float64 {
	values := make([]float64, 0, Size)
	for _, row := range g {
		values = append(values, row[:]...)
	}
	return values
}

// cellsOf 返回所有值为 v 的格子坐标
func (g Grid) cellsOf(v float64) [][2]int {
	var cells [][2]int
	for r, row := range g {
		for c, x := range row {
			if x == v {
				cells = append(cells, [2]int{r, c})
			}
		}
	}
	return cells
}

func (g Grid) String() string {
	var sb strings.Builder
	for r, row := range g {
		if r > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteByte('[')
		for c, x := range row {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

func reshape(values []float64) Grid {
	var g Grid
	for i, v := range values {
		g[i/Cols][i%Cols] = v
	}
	return g
}

// Occurrences 记录每个数字应当出现的次数
type Occurrences struct {
	counts map[float64]int
	keys   []float64 // 升序，保证遍历顺序固定
}

func NewOccurrences(values []float64) Occurrences {
	counts := make(map[float64]int)
	for _, v := range values {
		counts[v]++
	}
	return Occurrences{
		counts: counts,
		keys:   slices.Sorted(maps.Keys(counts)),
	}
}

func (o Occurrences) Count(v float64) int {
	return o.counts[v]
}

func (o Occurrences) Keys() []float64 {
	return slices.Clone(o.keys)
}

// Equal 判断两个计数是否完全一致
func (o Occurrences) Equal(other Occurrences) bool {
	return maps.Equal(o.counts, other.counts)
}
