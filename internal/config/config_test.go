package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/ga-lab/internal/evolution"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, evolution.Parameters{SampleSize: 300, Elitism: 75, Culling: 175, MutationRate: 0.75}, cfg.Evolution.Allocation.Parameters())
	assert.Equal(t, evolution.Parameters{SampleSize: 800, Elitism: 160, Culling: 240, MutationRate: 0.2}, cfg.Evolution.Tower.Parameters())
	assert.Equal(t, 20.0, cfg.Evolution.Tower.Baseline)
	assert.Equal(t, 600, cfg.Run.MaxSeconds)
	// 没有公开的默认密钥
	assert.Empty(t, cfg.JWT.Secret)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("EVOLUTION_ALLOCATION_SAMPLE_SIZE", "50")
	t.Setenv("EVOLUTION_ALLOCATION_ELITISM", "5")
	t.Setenv("EVOLUTION_ALLOCATION_CULLING", "10")
	t.Setenv("EVOLUTION_ALLOCATION_MAX_GENERATIONS", "100")
	t.Setenv("EVOLUTION_TOWER_BASELINE", "5")
	t.Setenv("EVOLUTION_TOWER_MUTATION_RATE", "0.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, evolution.Parameters{SampleSize: 50, Elitism: 5, Culling: 10, MutationRate: 0.75, MaxGenerations: 100}, cfg.Evolution.Allocation.Parameters())
	assert.Equal(t, 0.5, cfg.Evolution.Tower.MutationRate)
	assert.Equal(t, 5.0, cfg.Evolution.Tower.Baseline)
}

func TestLoadConfigRejectsInvalidParameters(t *testing.T) {
	t.Setenv("EVOLUTION_TOWER_CULLING", "700")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedValue(t *testing.T) {
	t.Setenv("EVOLUTION_ALLOCATION_MUTATION_RATE", "often")

	_, err := LoadConfig()
	assert.Error(t, err)
}
