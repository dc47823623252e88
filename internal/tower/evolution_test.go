package tower

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ga-lab/internal/evolution"
)

// distinct 在每次计算适应度时检查塔中的构件没有重复并且都来自输入
type distinct struct {
	*Problem
	t       *testing.T
	checked int
}

func (d *distinct) Fitness(s Stack) float64 {
	d.checked++
	if !unique(s) {
		d.t.Errorf("第 %d 次评估的塔有重复构件: %v", d.checked, ids(s))
	}
	for _, piece := range s {
		if piece.ID < 0 || piece.ID >= len(d.pieces) || d.pieces[piece.ID] != piece {
			d.t.Errorf("第 %d 次评估的塔含有不在输入中的构件: %v", d.checked, piece)
		}
	}
	return d.Problem.Fitness(s)
}

func TestEvolutionKeepsPiecesUniqueEveryGeneration(t *testing.T) {
	checked := &distinct{Problem: testProblem(t), t: t}

	engine, err := evolution.New[Stack](checked, evolution.Parameters{
		SampleSize:     40,
		Elitism:        4,
		Culling:        4,
		MutationRate:   0.5,
		MaxGenerations: 200,
	})
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), time.Minute, newRNG(5))
	require.NoError(t, err)
	assert.Equal(t, 200, result.Generations)
	assert.Greater(t, checked.checked, 200*40)
	assert.True(t, unique(result.Best.Genome))
}
