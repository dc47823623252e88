package utils

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ga-lab/internal/allocation"
	"github.com/sysu-ecnc-dev/ga-lab/internal/tower"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestGenerateRandomNumbers(t *testing.T) {
	numbers := GenerateRandomNumbers(newRNG(1), -5, 5)
	require.Len(t, numbers, allocation.Size)
	for _, x := range numbers {
		assert.GreaterOrEqual(t, x, -5.0)
		assert.Less(t, x, 5.0)
	}

	_, err := allocation.NewProblem(numbers)
	assert.NoError(t, err)
}

func TestGenerateRandomIntegers(t *testing.T) {
	numbers := GenerateRandomIntegers(newRNG(1), 1, 3)
	require.Len(t, numbers, allocation.Size)
	for _, x := range numbers {
		assert.Contains(t, []float64{1, 2, 3}, x)
	}
}

func TestGenerateRandomPieces(t *testing.T) {
	pieces := GenerateRandomPieces(newRNG(1), 2, 5, 3, 4, 6, 8)
	require.Len(t, pieces, 10)

	kinds := map[tower.Kind]int{}
	for i, p := range pieces {
		assert.Equal(t, i, p.ID)
		assert.GreaterOrEqual(t, p.Width, 1)
		assert.LessOrEqual(t, p.Width, 4)
		assert.LessOrEqual(t, p.Strength, 6)
		assert.LessOrEqual(t, p.Cost, 8)
		kinds[p.Kind]++
	}
	assert.Equal(t, map[tower.Kind]int{tower.KindDoor: 2, tower.KindWall: 5, tower.KindLookout: 3}, kinds)
}

func TestValidateGridConservation(t *testing.T) {
	numbers := GenerateRandomIntegers(newRNG(2), 1, 9)
	problem, err := allocation.NewProblem(numbers)
	require.NoError(t, err)

	g := problem.Random(newRNG(3))
	assert.NoError(t, ValidateGridConservation(g, problem.Occurrences()))

	g[1][1] = 100
	assert.Error(t, ValidateGridConservation(g, problem.Occurrences()))
}

func TestValidateStackPieces(t *testing.T) {
	manifest := GenerateRandomPieces(newRNG(4), 1, 2, 1, 5, 5, 5)

	assert.NoError(t, ValidateStackPieces(tower.Stack{manifest[3], manifest[0]}, manifest))
	assert.NoError(t, ValidateStackPieces(tower.Stack{}, manifest))

	assert.Error(t, ValidateStackPieces(tower.Stack{manifest[1], manifest[1]}, manifest))

	foreign := manifest[2]
	foreign.ID = 10
	assert.Error(t, ValidateStackPieces(tower.Stack{foreign}, manifest))

	changed := manifest[2]
	changed.Cost++
	assert.Error(t, ValidateStackPieces(tower.Stack{changed}, manifest))
}
