package evolution

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter 是测试用的问题：个体是 [0, 100] 内的整数，适应度为 n+1
type counter struct{}

func (counter) Random(rng *rand.Rand) int { return rng.IntN(101) }

func (counter) Fitness(n int) float64 { return float64(n + 1) }

func (counter) Clone(n int) int { return n }

func (counter) Crossover(parents []int, rng *rand.Rand) ([]int, error) {
	a, b := parents[0], parents[1]
	return []int{(a + b) / 2, (a+b+1)/2 + rng.IntN(2)}, nil
}

func (counter) Mutate(genomes []int, i int, _ func(int) bool, rng *rand.Rand) {
	genomes[i] = rng.IntN(101)
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func testParameters() Parameters {
	return Parameters{
		SampleSize:   40,
		Elitism:      8,
		Culling:      12,
		MutationRate: 0.5,
	}
}

func ranked(fitness ...float64) Population[int] {
	pop := make(Population[int], len(fitness))
	for i, f := range fitness {
		pop[i] = &Individual[int]{Genome: i, Fitness: f}
	}
	pop.Rank()
	return pop
}

func TestSelectParentsDistinct(t *testing.T) {
	pool := ranked(1, 2, 3, 4, 5)
	rng := newRNG(1)

	for range 1000 {
		i, j, err := SelectParents(pool, rng)
		require.NoError(t, err)
		assert.NotEqual(t, i, j)
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, j, len(pool))
	}
}

func TestSelectParentsDegenerate(t *testing.T) {
	rng := newRNG(1)

	_, _, err := SelectParents(ranked(0, 0, 0), rng)
	assert.ErrorIs(t, err, ErrZeroFitness)

	_, _, err = SelectParents(ranked(0, 0, 7), rng)
	assert.ErrorIs(t, err, ErrZeroFitness)

	_, _, err = SelectParents(ranked(3), rng)
	assert.ErrorIs(t, err, ErrPoolTooSmall)
}

func TestSelectParentsFavoursFitter(t *testing.T) {
	pool := ranked(1, 100)
	rng := newRNG(7)

	// 两个个体时父本总是两者都选中，顺序由轮盘决定
	firstIsFitter := 0
	for range 1000 {
		i, _, err := SelectParents(pool, rng)
		require.NoError(t, err)
		if pool[i].Fitness == 100 {
			firstIsFitter++
		}
	}
	assert.Greater(t, firstIsFitter, 900)
}

func TestSelectParentsUnbounded(t *testing.T) {
	rng := newRNG(1)

	_, _, err := SelectParents(ranked(1, 2, math.Inf(1)), rng)
	assert.ErrorIs(t, err, ErrUnboundedFitness)

	_, _, err = SelectParents(ranked(1, math.NaN(), 2), rng)
	assert.ErrorIs(t, err, ErrUnboundedFitness)

	// 每个值都有限，但总和溢出
	_, _, err = SelectParents(ranked(math.MaxFloat64, math.MaxFloat64), rng)
	assert.ErrorIs(t, err, ErrUnboundedFitness)
}

func TestSelectParentsLopsided(t *testing.T) {
	pool := ranked(1e-300, 1e300)
	rng := newRNG(3)

	for range 100 {
		i, j, err := SelectParents(pool, rng)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{0, 1}, []int{i, j})
	}
}

// overflow 的适应度总是 +Inf
type overflow struct{ counter }

func (overflow) Fitness(int) float64 { return math.Inf(1) }

func TestRunUnboundedFitness(t *testing.T) {
	engine, err := New[int](overflow{}, testParameters())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		result, err := engine.Run(context.Background(), 100*time.Millisecond, newRNG(1))
		assert.Nil(t, result)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrUnboundedFitness)
	case <-time.After(3 * time.Second):
		t.Fatal("演化没有在时间预算内结束")
	}
}

func TestElitismAndCulling(t *testing.T) {
	pop := ranked(3, 1, 5, 2, 4)

	elites := Elitism(pop, 2)
	require.Len(t, elites, 2)
	assert.Equal(t, 5.0, elites[0].Fitness)
	assert.Equal(t, 4.0, elites[1].Fitness)

	pool := Culling(pop, 2)
	require.Len(t, pool, 3)
	assert.Equal(t, []float64{5, 4, 3}, []float64{pool[0].Fitness, pool[1].Fitness, pool[2].Fitness})

	assert.Empty(t, Elitism(pop, 0))
	assert.Len(t, Elitism(pop, 10), 5)
	assert.Empty(t, Culling(pop, 10))
}

func TestParametersValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Parameters)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *Parameters) {}},
		{name: "allocation defaults", mutate: func(p *Parameters) {
			*p = Parameters{SampleSize: 300, Elitism: 75, Culling: 175, MutationRate: 0.75}
		}},
		{name: "tower defaults", mutate: func(p *Parameters) {
			*p = Parameters{SampleSize: 800, Elitism: 160, Culling: 240, MutationRate: 0.2}
		}},
		{name: "elites and culled fill the population", mutate: func(p *Parameters) { p.Elitism, p.Culling = 20, 20 }, wantErr: true},
		{name: "fewer than two parents", mutate: func(p *Parameters) { p.Elitism, p.Culling = 0, 39 }, wantErr: true},
		{name: "tiny population", mutate: func(p *Parameters) { p.SampleSize, p.Elitism, p.Culling = 1, 0, 0 }, wantErr: true},
		{name: "rate above one", mutate: func(p *Parameters) { p.MutationRate = 1.5 }, wantErr: true},
		{name: "negative elitism", mutate: func(p *Parameters) { p.Elitism = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParameters()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	p := testParameters()
	p.Culling = p.SampleSize

	_, err := New[int](counter{}, p)
	assert.Error(t, err)
}

func TestRunZeroBudget(t *testing.T) {
	engine, err := New[int](counter{}, testParameters())
	require.NoError(t, err)

	res, err := engine.Run(context.Background(), 0, newRNG(1))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Generations)
	assert.Equal(t, 0, res.Best.Generation)
	assert.Equal(t, float64(res.Best.Genome+1), res.Best.Fitness)
}

func TestRunMaxGenerations(t *testing.T) {
	p := testParameters()
	p.MaxGenerations = 25

	var history []GenerationStats
	engine, err := New[int](counter{}, p, WithObserver(ObserverFunc(func(s GenerationStats) {
		history = append(history, s)
	})))
	require.NoError(t, err)

	res, err := engine.Run(context.Background(), time.Hour, newRNG(3))
	require.NoError(t, err)
	assert.Equal(t, 25, res.Generations)

	// 第 0 代加上 25 代
	require.Len(t, history, 26)
	for i, s := range history {
		assert.Equal(t, i, s.Generation)
		assert.LessOrEqual(t, s.Worst, s.Mean)
		assert.LessOrEqual(t, s.Mean, s.Best)
		assert.LessOrEqual(t, s.Best, s.BestEver)
		if i > 0 {
			assert.GreaterOrEqual(t, s.BestEver, history[i-1].BestEver)
		}
	}

	last := history[len(history)-1]
	assert.Equal(t, last.BestEver, res.Best.Fitness)
	assert.Equal(t, last.FoundGeneration, res.Best.Generation)
	assert.LessOrEqual(t, res.Best.Generation, res.Generations)
}

func TestRunDeterministicWithSeed(t *testing.T) {
	p := testParameters()
	p.MaxGenerations = 15

	run := func() *Result[int] {
		engine, err := New[int](counter{}, p)
		require.NoError(t, err)
		res, err := engine.Run(context.Background(), time.Hour, newRNG(42))
		require.NoError(t, err)
		return res
	}

	assert.Equal(t, run(), run())
}

func TestRunCancelled(t *testing.T) {
	engine, err := New[int](counter{}, testParameters())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := engine.Run(ctx, time.Hour, newRNG(1))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Generations)
}

func TestRunStopsWhenBudgetElapsed(t *testing.T) {
	// 每次读时钟前进一秒，预算为 5 秒
	now := time.Unix(0, 0)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	engine, err := New[int](counter{}, testParameters(), WithClock(clock))
	require.NoError(t, err)

	res, err := engine.Run(context.Background(), 5*time.Second, newRNG(1))
	require.NoError(t, err)
	assert.Greater(t, res.Generations, 0)
	assert.Less(t, res.Generations, 5)
}

func TestStepKeepsSizeAndElites(t *testing.T) {
	p := testParameters()
	engine, err := New[int](counter{}, p)
	require.NoError(t, err)

	rng := newRNG(9)
	pop := engine.initialPopulation(rng)
	pop.Rank()

	for range 20 {
		next, err := engine.step(pop, rng)
		require.NoError(t, err)
		assert.Len(t, next, p.SampleSize)
		// 最优个体受保护，不会被变异变差
		assert.GreaterOrEqual(t, next.Fittest().Fitness, pop.Fittest().Fitness)
		for i := 1; i < len(next); i++ {
			assert.LessOrEqual(t, next[i-1].Fitness, next[i].Fitness)
		}
		pop = next
	}
}
