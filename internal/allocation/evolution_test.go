package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ga-lab/internal/evolution"
)

// conserving 在每次计算适应度时检查网格是否仍是输入的一个排列，
// 引擎对每一代的每个个体都会计算适应度
type conserving struct {
	*Problem
	t       *testing.T
	checked int
}

func (c *conserving) Fitness(g Grid) float64 {
	c.checked++
	if !NewOccurrences(g.Values()).Equal(c.Occurrences()) {
		c.t.Errorf("第 %d 次评估的网格不是输入的排列:\n%s", c.checked, g)
	}
	return c.Problem.Fitness(g)
}

func smallParameters() evolution.Parameters {
	return evolution.Parameters{
		SampleSize:     60,
		Elitism:        15,
		Culling:        30,
		MutationRate:   0.75,
		MaxGenerations: 50,
	}
}

func TestEvolutionConservesEveryGeneration(t *testing.T) {
	p, err := NewProblem(scenarioValues())
	require.NoError(t, err)
	checked := &conserving{Problem: p, t: t}

	engine, err := evolution.New[Grid](checked, smallParameters())
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), time.Minute, newRNG(11))
	require.NoError(t, err)
	assert.Equal(t, 50, result.Generations)
	assert.Greater(t, checked.checked, 50*60)
	assert.True(t, NewOccurrences(result.Best.Genome.Values()).Equal(p.Occurrences()))
}

func TestEvolutionOverflowingFitness(t *testing.T) {
	values := make([]float64, Size)
	for i := range values {
		values[i] = 1e200
	}
	p, err := NewProblem(values)
	require.NoError(t, err)

	params := smallParameters()
	params.MaxGenerations = 0
	engine, err := evolution.New[Grid](p, params)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := engine.Run(context.Background(), 100*time.Millisecond, newRNG(1))
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, evolution.ErrUnboundedFitness)
	case <-time.After(3 * time.Second):
		t.Fatal("适应度溢出后演化没有结束")
	}
}
