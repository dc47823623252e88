package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
)

var ErrRunStateNotFound = errors.New("运行状态不存在或已过期")

// RunStateCache 把运行状态保存在 redis 中，过期后自动删除
type RunStateCache struct {
	client     *redis.Client
	expiration time.Duration
}

func NewRunStateCache(client *redis.Client, expiration time.Duration) *RunStateCache {
	return &RunStateCache{
		client:     client,
		expiration: expiration,
	}
}

func runStateKey(id string) string {
	return fmt.Sprintf("run_status_%s", id)
}

func (c *RunStateCache) SetRunState(ctx context.Context, state *domain.RunState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, runStateKey(state.ID), data, c.expiration).Err()
}

func (c *RunStateCache) GetRunState(ctx context.Context, id string) (*domain.RunState, error) {
	data, err := c.client.Get(ctx, runStateKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRunStateNotFound
		}
		return nil, err
	}

	state := &domain.RunState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	return state, nil
}
