package repository

import (
	"strconv"

	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
)

func (r *Repository) InsertRunResult(result *domain.RunResult) error {
	query := `
		INSERT INTO run_results (
			id, problem, input_digest, seed, time_seconds, best, best_text,
			best_fitness, score, generations, found_generation, duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	// seed 是 uint64，超出 bigint 的范围，以文本保存
	args := []any{
		result.ID, string(result.Problem), result.InputDigest, strconv.FormatUint(result.Seed, 10), result.TimeSeconds,
		string(result.Best), result.BestText, result.BestFitness, result.Score,
		result.Generations, result.FoundGeneration, result.DurationMs,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&result.CreatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetRunResultByID(id string) (*domain.RunResult, error) {
	query := `
		SELECT problem, input_digest, seed, time_seconds, best, best_text,
			best_fitness, score, generations, found_generation, duration_ms, created_at
		FROM run_results WHERE id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	result := &domain.RunResult{
		ID: id,
	}

	var seed string
	var best []byte
	dst := []any{
		&result.Problem, &result.InputDigest, &seed, &result.TimeSeconds, &best, &result.BestText,
		&result.BestFitness, &result.Score, &result.Generations, &result.FoundGeneration, &result.DurationMs, &result.CreatedAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := decode(result, seed, best); err != nil {
		return nil, err
	}

	return result, nil
}

// GetRecentRunResults 按创建时间倒序返回最近的结果
func (r *Repository) GetRecentRunResults(problem domain.ProblemKind, limit int) ([]*domain.RunResult, error) {
	query := `
		SELECT id, problem, input_digest, seed, time_seconds, best, best_text,
			best_fitness, score, generations, found_generation, duration_ms, created_at
		FROM run_results
		WHERE $1 = '' OR problem = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, string(problem), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*domain.RunResult, 0)
	for rows.Next() {
		result := &domain.RunResult{}

		var seed string
		var best []byte
		dst := []any{
			&result.ID, &result.Problem, &result.InputDigest, &seed, &result.TimeSeconds, &best, &result.BestText,
			&result.BestFitness, &result.Score, &result.Generations, &result.FoundGeneration, &result.DurationMs, &result.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := decode(result, seed, best); err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func decode(result *domain.RunResult, seed string, best []byte) error {
	s, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return err
	}
	result.Seed = s
	result.Best = best
	return nil
}
