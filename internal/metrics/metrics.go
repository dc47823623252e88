package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
	"github.com/sysu-ecnc-dev/ga-lab/internal/evolution"
)

type Collector struct {
	generations *prometheus.CounterVec
	bestFitness *prometheus.GaugeVec
	meanFitness *prometheus.GaugeVec
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "galab",
			Name:      "generations_total",
			Help:      "Number of generations evolved.",
		}, []string{"problem"}),
		bestFitness: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "galab",
			Name:      "best_ever_fitness",
			Help:      "Best-ever fitness of the most recent generation.",
		}, []string{"problem"}),
		meanFitness: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "galab",
			Name:      "mean_fitness",
			Help:      "Mean fitness of the most recent generation.",
		}, []string{"problem"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "galab",
			Name:      "runs_total",
			Help:      "Number of finished runs by status.",
		}, []string{"problem", "status"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "galab",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of runs.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"problem"}),
	}
}

// Observer 返回一个把每代统计写入指标的观察者，可直接作为 runner.ObserverFactory
func (c *Collector) Observer(problem domain.ProblemKind) evolution.Observer {
	generations := c.generations.WithLabelValues(string(problem))
	best := c.bestFitness.WithLabelValues(string(problem))
	mean := c.meanFitness.WithLabelValues(string(problem))

	return evolution.ObserverFunc(func(stats evolution.GenerationStats) {
		// 第 0 代是初始种群，不计入代数
		if stats.Generation > 0 {
			generations.Inc()
		}
		best.Set(stats.BestEver)
		mean.Set(stats.Mean)
	})
}

func (c *Collector) ObserveRun(problem domain.ProblemKind, status domain.RunStatus, d time.Duration) {
	c.runs.WithLabelValues(string(problem), string(status)).Inc()
	c.runDuration.WithLabelValues(string(problem)).Observe(d.Seconds())
}
