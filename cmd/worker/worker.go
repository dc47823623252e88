package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
	"github.com/sysu-ecnc-dev/ga-lab/internal/metrics"
	"github.com/sysu-ecnc-dev/ga-lab/internal/runner"
)

type resultStore interface {
	InsertRunResult(result *domain.RunResult) error
}

type stateStore interface {
	SetRunState(ctx context.Context, state *domain.RunState) error
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// errRequeue 表示运行被中断，消息需要重新入队
var errRequeue = errors.New("运行被中断，重新入队")

type worker struct {
	logger         *slog.Logger
	runner         *runner.Runner
	results        resultStore
	states         stateStore
	mailChannel    publisher
	collector      *metrics.Collector
	publishTimeout time.Duration
}

// process 处理一条运行请求。返回 errRequeue 时消息应重新入队，其他错误表示消息应被丢弃
func (wk *worker) process(ctx context.Context, body []byte) error {
	req := &domain.RunRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		return fmt.Errorf("运行请求反序列化失败: %w", err)
	}

	logger := wk.logger.With(slog.String("id", req.ID), slog.String("problem", string(req.Problem)))

	if err := wk.setState(ctx, req.ID, domain.RunStatusRunning, ""); err != nil {
		return err
	}

	logger.Info("开始运行", slog.Int("timeSeconds", req.TimeSeconds))
	start := time.Now()
	result, err := wk.runner.Run(ctx, req)

	if err != nil && ctx.Err() != nil {
		// worker 正在关闭，交给下一个 worker 重新运行
		if err := wk.setState(context.WithoutCancel(ctx), req.ID, domain.RunStatusQueued, ""); err != nil {
			logger.Error("无法恢复排队状态", slog.String("error", err.Error()))
		}
		return errRequeue
	}

	if err == nil {
		err = wk.results.InsertRunResult(result)
	}

	status := domain.RunStatusFinished
	reason := ""
	if err != nil {
		status = domain.RunStatusFailed
		reason = err.Error()
		logger.Error("运行失败", slog.String("error", reason))
	} else {
		logger.Info("运行完成",
			slog.Float64("bestFitness", result.BestFitness),
			slog.Int("generations", result.Generations),
			slog.Int("foundGeneration", result.FoundGeneration),
		)
	}
	wk.collector.ObserveRun(req.Problem, status, time.Since(start))

	if err := wk.setState(ctx, req.ID, status, reason); err != nil {
		return err
	}

	if req.NotifyEmail != "" {
		if err := wk.notify(ctx, req, status, reason, result); err != nil {
			// 邮件失败不影响运行结果
			logger.Error("无法发送邮件通知", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (wk *worker) setState(ctx context.Context, id string, status domain.RunStatus, reason string) error {
	return wk.states.SetRunState(ctx, &domain.RunState{
		ID:        id,
		Status:    status,
		Error:     reason,
		UpdatedAt: time.Now(),
	})
}

func (wk *worker) notify(ctx context.Context, req *domain.RunRequest, status domain.RunStatus, reason string, result *domain.RunResult) error {
	data := domain.RunFinishedMailData{
		RunID:   req.ID,
		Problem: req.Problem,
		Status:  status,
		Error:   reason,
	}
	if result != nil && status == domain.RunStatusFinished {
		data.BestFitness = result.BestFitness
		data.Score = result.Score
		data.Generations = result.Generations
		data.FoundGeneration = result.FoundGeneration
		data.BestText = result.BestText
	}

	body, err := json.Marshal(domain.MailMessage{
		Type: domain.MailTypeRunFinished,
		To:   req.NotifyEmail,
		Data: data,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, wk.publishTimeout)
	defer cancel()

	return wk.mailChannel.PublishWithContext(
		ctx,
		"",
		domain.MailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    req.ID,
			Body:         body,
		},
	)
}
