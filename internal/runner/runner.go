package runner

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/ga-lab/internal/allocation"
	"github.com/sysu-ecnc-dev/ga-lab/internal/config"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
	"github.com/sysu-ecnc-dev/ga-lab/internal/evolution"
	"github.com/sysu-ecnc-dev/ga-lab/internal/tower"
	"github.com/sysu-ecnc-dev/ga-lab/internal/utils"
	"golang.org/x/crypto/blake2b"
)

// ObserverFactory 为每次运行创建一个观察者，返回 nil 表示不需要
type ObserverFactory func(problem domain.ProblemKind) evolution.Observer

type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	observers []ObserverFactory
}

func New(cfg *config.Config, logger *slog.Logger, observers ...ObserverFactory) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:       cfg,
		logger:    logger,
		observers: observers,
	}
}

// Run 解析输入、演化并返回最优解。输入错误在初始化种群之前返回
func (r *Runner) Run(ctx context.Context, req *domain.RunRequest) (*domain.RunResult, error) {
	if req.TimeSeconds < 0 {
		return nil, fmt.Errorf("运行时间不能为负数: %d", req.TimeSeconds)
	}

	seed := req.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	budget := time.Duration(req.TimeSeconds) * time.Second

	result := &domain.RunResult{
		ID:          req.ID,
		Problem:     req.Problem,
		InputDigest: Fingerprint(req.Input),
		Seed:        seed,
		TimeSeconds: req.TimeSeconds,
		CreatedAt:   time.Now(),
	}

	start := time.Now()
	var err error
	switch req.Problem {
	case domain.ProblemAllocation:
		err = r.runAllocation(ctx, strings.NewReader(req.Input), budget, rng, result)
	case domain.ProblemTower:
		err = r.runTower(ctx, strings.NewReader(req.Input), budget, rng, result)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownProblem, req.Problem)
	}
	result.DurationMs = time.Since(start).Milliseconds()

	// 被取消时仍然返回已经找到的最优解
	if err != nil && !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil, err
	}
	return result, err
}

// Check 只解析输入而不演化，用于在排队之前拒绝错误的输入
func Check(kind domain.ProblemKind, input string) error {
	switch kind {
	case domain.ProblemAllocation:
		numbers, err := allocation.ParseNumbers(strings.NewReader(input))
		if err != nil {
			return err
		}
		_, err = allocation.NewProblem(numbers)
		return err
	case domain.ProblemTower:
		pieces, err := tower.ParsePieces(strings.NewReader(input))
		if err != nil {
			return err
		}
		_, err = tower.NewProblem(pieces, tower.DefaultBaseline)
		return err
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownProblem, kind)
	}
}

func (r *Runner) runAllocation(ctx context.Context, input io.Reader, budget time.Duration, rng *rand.Rand, result *domain.RunResult) error {
	numbers, err := allocation.ParseNumbers(input)
	if err != nil {
		return err
	}
	problem, err := allocation.NewProblem(numbers)
	if err != nil {
		return err
	}

	res, runErr := evolve[allocation.Grid](ctx, r, domain.ProblemAllocation, problem, r.cfg.Evolution.Allocation.Parameters(), budget, rng)
	if res == nil {
		return runErr
	}

	// 输出前再检查一次守恒
	if err := utils.ValidateGridConservation(res.Best.Genome, problem.Occurrences()); err != nil {
		return fmt.Errorf("最优解不满足守恒约束: %w", err)
	}

	if err := fill(result, res, res.Best.Genome.String(), res.Best.Fitness); err != nil {
		return err
	}
	return runErr
}

func (r *Runner) runTower(ctx context.Context, input io.Reader, budget time.Duration, rng *rand.Rand, result *domain.RunResult) error {
	pieces, err := tower.ParsePieces(input)
	if err != nil {
		return err
	}
	problem, err := tower.NewProblem(pieces, r.cfg.Evolution.Tower.Baseline)
	if err != nil {
		return err
	}

	res, runErr := evolve[tower.Stack](ctx, r, domain.ProblemTower, problem, r.cfg.Evolution.Tower.Parameters(), budget, rng)
	if res == nil {
		return runErr
	}

	if err := utils.ValidateStackPieces(res.Best.Genome, problem.Pieces()); err != nil {
		return fmt.Errorf("最优解中的构件不合法: %w", err)
	}

	if err := fill(result, res, res.Best.Genome.String(), problem.Score(res.Best.Genome)); err != nil {
		return err
	}
	return runErr
}

func evolve[G any](ctx context.Context, r *Runner, kind domain.ProblemKind, problem evolution.Problem[G], params evolution.Parameters, budget time.Duration, rng *rand.Rand) (*evolution.Result[G], error) {
	opts := []evolution.Option{
		evolution.WithLogger(r.logger.With(slog.String("problem", string(kind)))),
	}
	for _, factory := range r.observers {
		if o := factory(kind); o != nil {
			opts = append(opts, evolution.WithObserver(o))
		}
	}

	engine, err := evolution.New(problem, params, opts...)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, budget, rng)
}

func fill[G any](result *domain.RunResult, res *evolution.Result[G], text string, score float64) error {
	best, err := json.Marshal(res.Best.Genome)
	if err != nil {
		return err
	}

	result.Best = best
	result.BestText = text
	result.BestFitness = res.Best.Fitness
	result.Score = score
	result.Generations = res.Generations
	result.FoundGeneration = res.Best.Generation
	return nil
}

// Fingerprint 计算输入的 blake2b-256 摘要，用于识别相同的输入
func Fingerprint(input string) string {
	sum := blake2b.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
