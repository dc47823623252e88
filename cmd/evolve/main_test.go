package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func allocationInput() string {
	var sb strings.Builder
	for v := 1; v <= 13; v++ {
		for range 3 {
			fmt.Fprintf(&sb, "%d\n", v)
		}
	}
	sb.WriteString("14\n")
	return sb.String()
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEvolveAllocation(t *testing.T) {
	t.Setenv("EVOLUTION_ALLOCATION_MAX_GENERATIONS", "3")
	path := writeInput(t, allocationInput())

	out, _, err := execute(t, "1", path, "30", "--seed", "9")
	require.NoError(t, err)

	assert.Contains(t, out, "最优解:\n[")
	assert.Contains(t, out, "总代数: 3\n")
	assert.Contains(t, out, "随机数种子: 9\n")
	assert.NotContains(t, out, "得分")
}

func TestEvolveTowerJSON(t *testing.T) {
	path := writeInput(t, "Door 5 3 2\nWall 4 2 1\nLookout 2 0 1\n")

	out, _, err := execute(t, "tower", path, "0", "--json", "--seed", "1")
	require.NoError(t, err)

	var result domain.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.ProblemTower, result.Problem)
	assert.Equal(t, 0, result.Generations)
	assert.Equal(t, result.BestFitness-20, result.Score)
}

func TestEvolveProgress(t *testing.T) {
	t.Setenv("EVOLUTION_TOWER_MAX_GENERATIONS", "2")
	path := writeInput(t, "Door 5 3 2\nWall 4 2 1\nLookout 2 0 1\n")

	out, progress, err := execute(t, "2", path, "30", "--progress")
	require.NoError(t, err)
	assert.Contains(t, out, "得分: ")
	assert.Equal(t, 3, strings.Count(progress, "历史最优"))
}

func TestEvolveRejectsBadArguments(t *testing.T) {
	path := writeInput(t, allocationInput())

	_, _, err := execute(t, "3", path, "1")
	assert.ErrorIs(t, err, domain.ErrUnknownProblem)

	_, _, err = execute(t, "1", path, "soon")
	assert.Error(t, err)

	_, _, err = execute(t, "1", filepath.Join(t.TempDir(), "missing.txt"), "1")
	assert.Error(t, err)

	_, _, err = execute(t, "1", writeInput(t, "1\n2\n"), "1")
	var inputErr *domain.InputError
	assert.ErrorAs(t, err, &inputErr)

	_, _, err = execute(t, "1", path)
	assert.Error(t, err)
}
