package domain

import (
	"encoding/json"
	"time"
)

type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusFailed   RunStatus = "failed"
)

type RunRequest struct {
	ID          string      `json:"id"`
	Problem     ProblemKind `json:"problem"`
	Input       string      `json:"input"`
	TimeSeconds int         `json:"timeSeconds"`
	Seed        uint64      `json:"seed"` // 为 0 时随机生成，实际使用的种子记录在结果中
	NotifyEmail string      `json:"notifyEmail,omitempty"`
}

type RunResult struct {
	ID              string          `json:"id"`
	Problem         ProblemKind     `json:"problem"`
	InputDigest     string          `json:"inputDigest"`
	Seed            uint64          `json:"seed"`
	TimeSeconds     int             `json:"timeSeconds"`
	Best            json.RawMessage `json:"best"`
	BestText        string          `json:"bestText"`
	BestFitness     float64         `json:"bestFitness"`
	Score           float64         `json:"score"` // 塔问题为扣除基线后的得分，分配问题与 BestFitness 相同
	Generations     int             `json:"generations"`
	FoundGeneration int             `json:"foundGeneration"`
	DurationMs      int64           `json:"durationMs"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// RunState 是保存在 redis 中的运行状态
type RunState struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const RunQueue = "run_queue"
