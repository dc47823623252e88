package tower

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
)

// DefaultBaseline 是不合法的塔得到的适应度
const DefaultBaseline = 20

var errParentCount = errors.New("塔的交叉需要恰好两个父本")

type Problem struct {
	pieces   []Piece
	baseline float64
}

func NewProblem(pieces []Piece, baseline float64) (*Problem, error) {
	if len(pieces) == 0 {
		return nil, &domain.InputError{Err: errors.New("至少需要一个构件")}
	}
	return &Problem{
		pieces:   slices.Clone(pieces),
		baseline: baseline,
	}, nil
}

func (p *Problem) Pieces() []Piece {
	return slices.Clone(p.pieces)
}

func (p *Problem) Baseline() float64 {
	return p.baseline
}

// Score 扣除基线后的得分，不合法的塔为 0
func (p *Problem) Score(s Stack) float64 {
	return p.Fitness(s) - p.baseline
}

// Random 随机选取 1..n 个不同的构件，顺序随机
func (p *Problem) Random(rng *rand.Rand) Stack {
	size := rng.IntN(len(p.pieces)) + 1
	perm := rng.Perm(len(p.pieces))

	s := make(Stack, size)
	for i := range s {
		s[i] = p.pieces[perm[i]]
	}
	return s
}

/**
 * 计算塔的适应度
 * 合法的塔: fitness = baseline + 10 + height^2 - totalCost
 * 其中合法需要同时满足:
 * 		1. 最底下是门，最顶上是瞭望台，中间全部是墙
 * 		2. 每个构件不比它下面的构件宽
 * 		3. 每个构件的强度不小于它上面构件的数量
 * 任何一条不满足时直接返回 baseline
 */
func (p *Problem) Fitness(s Stack) float64 {
	height := len(s)
	if height == 0 {
		return p.baseline
	}
	if s[0].Kind != KindDoor || s[height-1].Kind != KindLookout {
		return p.baseline
	}

	for i, piece := range s {
		if i != 0 && i != height-1 && piece.Kind != KindWall {
			return p.baseline
		}
		if i != 0 && s[i-1].Width < piece.Width {
			return p.baseline
		}
		if piece.Strength+i-height+1 < 0 {
			return p.baseline
		}
	}

	return p.baseline + 10 + float64(height*height) - float64(s.Cost())
}

func (p *Problem) Clone(s Stack) Stack {
	return slices.Clone(s)
}

// Crossover 底部取各自的父本，中间交替分配两个父本的构件，顶部优先取另一个父本的
func (p *Problem) Crossover(parents []Stack, _ *rand.Rand) ([]Stack, error) {
	if len(parents) != 2 {
		return nil, fmt.Errorf("%w，实际为 %d 个", errParentCount, len(parents))
	}
	p0, p1 := parents[0], parents[1]

	child1 := make(Stack, 0, len(p0)+len(p1))
	child2 := make(Stack, 0, len(p0)+len(p1))

	if len(p0) > 0 {
		child1 = append(child1, p0[0])
	}
	if len(p1) > 0 {
		child2 = append(child2, p1[0])
	}

	// 中间的构件轮流分给两个子代，已经有的构件跳过
	toFirst := true
	for _, parent := range parents {
		for i := 1; i < len(parent)-1; i++ {
			piece := parent[i]
			if toFirst && !child1.Contains(piece.ID) {
				child1 = append(child1, piece)
				toFirst = false
			} else if !child2.Contains(piece.ID) {
				child2 = append(child2, piece)
				toFirst = true
			}
		}
	}

	child1 = appendFirstUnused(child1, top(p1), top(p0))
	child2 = appendFirstUnused(child2, top(p0), top(p1))

	return []Stack{child1, child2}, nil
}

func top(s Stack) *Piece {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}

// appendFirstUnused 依次尝试候选构件，追加第一个子代中还没有的
func appendFirstUnused(child Stack, candidates ...*Piece) Stack {
	for _, c := range candidates {
		if c != nil && !child.Contains(c.ID) {
			return append(child, *c)
		}
	}
	return child
}

// Mutate 从随机选出的另一座塔中拿走一个构件，插入到当前塔的随机位置
func (p *Problem) Mutate(stacks []Stack, i int, protected func(int) bool, rng *rand.Rand) {
	donor := rng.IntN(len(stacks))
	if protected(donor) {
		return
	}

	target, source := stacks[i], stacks[donor]
	if len(source) == 0 {
		return
	}

	insertAt := 0
	if len(target) > 0 {
		insertAt = rng.IntN(len(target))
	}
	pick := rng.IntN(len(source))
	piece := source[pick]

	if target.Contains(piece.ID) {
		return
	}

	stacks[donor] = slices.Delete(source, pick, pick+1)
	stacks[i] = slices.Insert(target, insertAt, piece)
}
