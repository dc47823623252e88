package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
	"github.com/sysu-ecnc-dev/ga-lab/internal/evolution"
	"github.com/sysu-ecnc-dev/ga-lab/internal/repository"
	"github.com/sysu-ecnc-dev/ga-lab/internal/runner"
)

type runRequest struct {
	Problem     string `json:"problem" validate:"required"`
	Input       string `json:"input" validate:"required"`
	TimeSeconds int    `json:"timeSeconds" validate:"gte=0"`
	Seed        uint64 `json:"seed"`
	NotifyEmail string `json:"notifyEmail" validate:"omitempty,email"`
}

// RunView 是查询单次运行时返回的数据，结果只有在运行结束后才存在
type RunView struct {
	State  *domain.RunState  `json:"state"`
	Result *domain.RunResult `json:"result,omitempty"`
}

// decodeRun 读取并检查请求，失败时已经写好了响应
func (h *Handler) decodeRun(w http.ResponseWriter, r *http.Request, maxSeconds int) (*domain.RunRequest, bool) {
	var req runRequest

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}

	if req.TimeSeconds > maxSeconds {
		h.errorResponse(w, r, "运行时间不能超过 "+strconv.Itoa(maxSeconds)+" 秒")
		return nil, false
	}

	kind, err := domain.ParseProblemKind(req.Problem)
	if err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}

	// 在排队之前就拒绝格式错误的输入
	if err := runner.Check(kind, req.Input); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}

	return &domain.RunRequest{
		ID:          uuid.NewString(),
		Problem:     kind,
		Input:       req.Input,
		TimeSeconds: req.TimeSeconds,
		Seed:        req.Seed,
		NotifyEmail: req.NotifyEmail,
	}, true
}

func (h *Handler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRun(w, r, h.config.Run.MaxSeconds)
	if !ok {
		return
	}

	// 先记录排队状态，避免 worker 太快导致状态被覆盖
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	state := &domain.RunState{
		ID:        req.ID,
		Status:    domain.RunStatusQueued,
		UpdatedAt: time.Now(),
	}
	if err := h.states.SetRunState(ctx, state); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel = context.WithTimeout(r.Context(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.runChannel.PublishWithContext(
		ctx,
		"",
		domain.RunQueue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    req.ID,
			Body:         body,
		},
	); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "运行已提交", state)
}

func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRun(w, r, h.config.Run.SyncMaxSeconds)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.runner.Run(r.Context(), req)
	if err != nil {
		if h.collector != nil {
			h.collector.ObserveRun(req.Problem, domain.RunStatusFailed, time.Since(start))
		}
		switch {
		case errors.Is(err, context.Canceled):
			h.errorResponse(w, r, "运行已取消")
		// 适应度退化是输入本身的问题
		case errors.Is(err, evolution.ErrZeroFitness), errors.Is(err, evolution.ErrUnboundedFitness):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if h.collector != nil {
		h.collector.ObserveRun(req.Problem, domain.RunStatusFinished, time.Since(start))
	}

	if err := h.runs.InsertRunResult(result); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "运行完成", result)
}

func (h *Handler) GetRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := h.config.Run.ListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.errorResponse(w, r, "limit 必须是正整数")
			return
		}
		limit = min(n, limit)
	}

	var kind domain.ProblemKind
	if s := r.URL.Query().Get("problem"); s != "" {
		k, err := domain.ParseProblemKind(s)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		kind = k
	}

	results, err := h.runs.GetRecentRunResults(kind, limit)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取运行结果成功", results)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(RunIDCtxKey).(string)

	result, err := h.runs.GetRunResultByID(id)
	switch {
	case err == nil:
		h.successResponse(w, r, "获取运行结果成功", RunView{
			State: &domain.RunState{
				ID:        id,
				Status:    domain.RunStatusFinished,
				UpdatedAt: result.CreatedAt,
			},
			Result: result,
		})
		return
	case !errors.Is(err, sql.ErrNoRows):
		h.internalServerError(w, r, err)
		return
	}

	// 还没有归档，查询排队状态
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	state, err := h.states.GetRunState(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRunStateNotFound):
			h.errorResponse(w, r, "运行不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取运行状态成功", RunView{State: state})
}
