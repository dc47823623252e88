package evolution

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// Problem 描述一个可以被演化的问题，G 是个体的编码（基因型）
type Problem[G any] interface {
	// Random 随机生成一个个体，用于初始化种群
	Random(rng *rand.Rand) G
	// Fitness 计算适应度，越大越好，不能为负
	Fitness(genome G) float64
	// Clone 深拷贝，保证两个种群之间不共享可变数据
	Clone(genome G) G
	// Crossover 由一组父本生成子代，子代必须是新分配的数据，并且已经修复为合法编码
	Crossover(parents []G, rng *rand.Rand) ([]G, error)
	// Mutate 对 genomes[i] 施加一次扰动，protected 为 true 的下标不允许被修改
	Mutate(genomes []G, i int, protected func(int) bool, rng *rand.Rand)
}

// Individual: 种群中的一个候选解
type Individual[G any] struct {
	Genome  G
	Fitness float64
}

// Population: 排序后按适应度升序排列，最后一个是最优个体
type Population[G any] []*Individual[G]

// Rank 按适应度升序排序，使用稳定排序保证相同种子下结果一致
func (p Population[G]) Rank() {
	slices.SortStableFunc(p, func(a, b *Individual[G]) int {
		return cmp.Compare(a.Fitness, b.Fitness)
	})
}

// Fittest 返回已排序种群中的最优个体
func (p Population[G]) Fittest() *Individual[G] {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Record: 迄今为止的最优个体以及它被发现时的代数
type Record[G any] struct {
	Genome     G
	Fitness    float64
	Generation int
}

type Result[G any] struct {
	Best        Record[G]
	Generations int
}
