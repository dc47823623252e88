package main

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ga-lab/internal/allocation"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
	"github.com/sysu-ecnc-dev/ga-lab/internal/tower"
)

func TestGenerateAllocation(t *testing.T) {
	var buf bytes.Buffer
	opts := &options{lo: 1, hi: 10, integer: true}

	require.NoError(t, generate(&buf, domain.ProblemAllocation, opts, rand.New(rand.NewPCG(1, 1))))

	numbers, err := allocation.ParseNumbers(&buf)
	require.NoError(t, err)
	_, err = allocation.NewProblem(numbers)
	assert.NoError(t, err)
}

func TestGenerateTower(t *testing.T) {
	var buf bytes.Buffer
	opts := &options{doors: 2, walls: 4, lookouts: 1, maxWidth: 5, maxStrength: 5, maxCost: 5}

	require.NoError(t, generate(&buf, domain.ProblemTower, opts, rand.New(rand.NewPCG(1, 1))))

	pieces, err := tower.ParsePieces(&buf)
	require.NoError(t, err)
	assert.Len(t, pieces, 7)
}

func TestGenerateRejectsBadOptions(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	var buf bytes.Buffer

	assert.Error(t, generate(&buf, domain.ProblemAllocation, &options{lo: 5, hi: 1}, rng))
	assert.Error(t, generate(&buf, domain.ProblemTower, &options{maxWidth: 5}, rng))
	assert.Error(t, generate(&buf, domain.ProblemTower, &options{doors: -1, walls: 3, maxWidth: 5}, rng))
}

func TestRootCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"tower", "--seed", "3", "--doors", "1", "--walls", "1", "--lookouts", "1"})

	require.NoError(t, cmd.Execute())
	assert.Len(t, bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n")), 3)

	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"knapsack"})
	assert.Error(t, cmd.Execute())
}
