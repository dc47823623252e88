package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/ga-lab/internal/config"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
	"github.com/sysu-ecnc-dev/ga-lab/internal/metrics"
	"github.com/sysu-ecnc-dev/ga-lab/internal/runner"
)

// RunStore 是运行结果的归档，由 repository.Repository 实现
type RunStore interface {
	InsertRunResult(result *domain.RunResult) error
	GetRunResultByID(id string) (*domain.RunResult, error)
	GetRecentRunResults(problem domain.ProblemKind, limit int) ([]*domain.RunResult, error)
}

// StateStore 保存排队中的运行状态，由 repository.RunStateCache 实现
type StateStore interface {
	SetRunState(ctx context.Context, state *domain.RunState) error
	GetRunState(ctx context.Context, id string) (*domain.RunState, error)
}

// Publisher 由 *amqp.Channel 实现
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var ErrMissingJWTSecret = errors.New("没有配置 JWT_SECRET")

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	runs       RunStore
	states     StateStore
	translator ut.Translator
	runChannel Publisher
	runner     *runner.Runner
	collector  *metrics.Collector
	metrics    http.Handler

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, runs RunStore, states StateStore, runCh Publisher, rn *runner.Runner, collector *metrics.Collector, metricsHandler http.Handler) (*Handler, error) {
	// 不允许用空密钥签发令牌
	if cfg.JWT.Secret == "" {
		return nil, ErrMissingJWTSecret
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		runs:       runs,
		states:     states,
		translator: trans,
		runChannel: runCh,
		runner:     rn,
		collector:  collector,
		metrics:    metricsHandler,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	if h.metrics != nil {
		h.Mux.Handle("/metrics", h.metrics)
	}

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.SubmitRun)
			r.Post("/sync", h.RunSync)
			r.Get("/", h.GetRecentRuns)
			r.With(h.runID).Get("/{id}", h.GetRun)
		})
	})
}
