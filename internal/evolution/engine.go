package evolution

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"
)

// GenerationStats 是每一代结束后交给 Observer 的统计信息
type GenerationStats struct {
	Generation      int
	Best            float64
	Mean            float64
	Worst           float64
	BestEver        float64
	FoundGeneration int
	Elapsed         time.Duration
}

type Observer interface {
	OnGeneration(stats GenerationStats)
}

type ObserverFunc func(stats GenerationStats)

func (f ObserverFunc) OnGeneration(stats GenerationStats) {
	f(stats)
}

type settings struct {
	logger    *slog.Logger
	observers []Observer
	now       func() time.Time
}

type Option func(*settings)

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithObserver 可以多次传入，按顺序调用
func WithObserver(o Observer) Option {
	return func(s *settings) {
		s.observers = append(s.observers, o)
	}
}

// WithClock 替换计时用的时钟，主要用于测试
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

type Engine[G any] struct {
	problem Problem[G]
	params  Parameters
	settings
}

func New[G any](problem Problem[G], params Parameters, opts ...Option) (*Engine[G], error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("遗传算法参数无效: %w", err)
	}

	s := settings{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Engine[G]{
		problem:  problem,
		params:   params,
		settings: s,
	}, nil
}

// Run 演化直到时间预算耗尽、达到最大代数或者 ctx 被取消。
// 终止条件只在两代之间检查，一代一旦开始就会完整执行。
// ctx 被取消时同时返回已得到的结果和 ctx 的错误。
func (e *Engine[G]) Run(ctx context.Context, budget time.Duration, rng *rand.Rand) (*Result[G], error) {
	start := e.now()

	// INIT
	pop := e.initialPopulation(rng)
	pop.Rank()
	best := e.record(pop.Fittest(), 0)
	if !isFinite(best.Fitness) {
		return nil, fmt.Errorf("初始种群无法演化: %w: 最优适应度为 %v", ErrUnboundedFitness, best.Fitness)
	}
	e.notify(pop, best, 0, start)

	e.logger.Info("开始演化",
		slog.Int("sampleSize", e.params.SampleSize),
		slog.Duration("budget", budget),
		slog.Float64("initialBest", best.Fitness),
	)

	// EVOLVING
	generation := 0
	var stopErr error
	for {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		if e.now().Sub(start) >= budget {
			break
		}
		if e.params.MaxGenerations > 0 && generation >= e.params.MaxGenerations {
			break
		}

		next, err := e.step(pop, rng)
		if err != nil {
			return nil, fmt.Errorf("第 %d 代演化失败: %w", generation+1, err)
		}
		generation++

		fittest := next.Fittest()
		if !isFinite(fittest.Fitness) {
			return nil, fmt.Errorf("第 %d 代演化失败: %w: 最优适应度为 %v", generation, ErrUnboundedFitness, fittest.Fitness)
		}
		if fittest.Fitness > best.Fitness {
			best = e.record(fittest, generation)
			e.logger.Debug("找到更优个体", slog.Int("generation", generation), slog.Float64("fitness", best.Fitness))
		}
		e.notify(next, best, generation, start)

		pop = next
	}

	// DONE
	e.logger.Info("演化结束",
		slog.Int("generations", generation),
		slog.Float64("bestFitness", best.Fitness),
		slog.Int("foundGeneration", best.Generation),
		slog.Duration("elapsed", e.now().Sub(start)),
	)

	return &Result[G]{
		Best:        best,
		Generations: generation,
	}, stopErr
}

func (e *Engine[G]) initialPopulation(rng *rand.Rand) Population[G] {
	pop := make(Population[G], e.params.SampleSize)
	for i := range pop {
		genome := e.problem.Random(rng)
		pop[i] = &Individual[G]{
			Genome:  genome,
			Fitness: e.problem.Fitness(genome),
		}
	}
	return pop
}

// step 由已排序的当前种群产生已排序的下一代
func (e *Engine[G]) step(pop Population[G], rng *rand.Rand) (Population[G], error) {
	next := make(Population[G], 0, e.params.SampleSize)

	// 保留精英，拷贝一份，避免下一代的变异改到上一代的数据
	for _, elite := range Elitism(pop, e.params.Elitism) {
		next = append(next, e.clone(elite))
	}

	// 在淘汰后剩余的个体中选择父本进行交叉
	pool := Culling(pop, e.params.Culling)
	for len(next) < e.params.SampleSize {
		i, j, err := SelectParents(pool, rng)
		if err != nil {
			return nil, err
		}

		children, err := e.problem.Crossover([]G{pool[i].Genome, pool[j].Genome}, rng)
		if err != nil {
			return nil, err
		}

		for _, child := range children {
			if len(next) == e.params.SampleSize {
				break
			}
			next = append(next, &Individual[G]{
				Genome:  child,
				Fitness: e.problem.Fitness(child),
			})
		}
	}

	// 变异，跳过下一代自己的精英
	next.Rank()
	e.mutate(next, rng)
	next.Rank()

	return next, nil
}

func (e *Engine[G]) mutate(ranked Population[G], rng *rand.Rand) {
	eliteFrom := len(ranked) - e.params.Elitism
	protected := func(i int) bool {
		return i >= eliteFrom
	}

	genomes := make([]G, len(ranked))
	for i, ind := range ranked {
		genomes[i] = ind.Genome
	}

	for i := range genomes {
		if rng.Float64() >= e.params.MutationRate {
			continue
		}
		// 只跳过当前这个精英，继续处理后面的个体
		if protected(i) {
			continue
		}
		e.problem.Mutate(genomes, i, protected, rng)
	}

	for i, ind := range ranked {
		ind.Genome = genomes[i]
		ind.Fitness = e.problem.Fitness(genomes[i])
	}
}

func (e *Engine[G]) clone(ind *Individual[G]) *Individual[G] {
	return &Individual[G]{
		Genome:  e.problem.Clone(ind.Genome),
		Fitness: ind.Fitness,
	}
}

// record 深拷贝最优个体，防止后续繁殖的过程中修改到它
func (e *Engine[G]) record(ind *Individual[G], generation int) Record[G] {
	return Record[G]{
		Genome:     e.problem.Clone(ind.Genome),
		Fitness:    ind.Fitness,
		Generation: generation,
	}
}

func (e *Engine[G]) notify(ranked Population[G], best Record[G], generation int, start time.Time) {
	if len(e.observers) == 0 {
		return
	}

	sum := 0.0
	for _, ind := range ranked {
		sum += ind.Fitness
	}

	stats := GenerationStats{
		Generation:      generation,
		Best:            ranked.Fittest().Fitness,
		Mean:            sum / float64(len(ranked)),
		Worst:           ranked[0].Fitness,
		BestEver:        best.Fitness,
		FoundGeneration: best.Generation,
		Elapsed:         e.now().Sub(start),
	}
	for _, o := range e.observers {
		o.OnGeneration(stats)
	}
}
