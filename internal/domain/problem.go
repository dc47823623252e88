package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ProblemKind string

const (
	ProblemAllocation ProblemKind = "allocation"
	ProblemTower      ProblemKind = "tower"
)

var ErrUnknownProblem = errors.New("未知的问题类型")

// ParseProblemKind 同时接受编号（1、2）和名称
func ParseProblemKind(s string) (ProblemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", string(ProblemAllocation):
		return ProblemAllocation, nil
	case "2", string(ProblemTower):
		return ProblemTower, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProblem, s)
	}
}

// InputError 表示输入文件中某一行无法解析
type InputError struct {
	Line int // 从 1 开始；0 表示针对整个输入的错误
	Text string
	Err  error
}

func (e *InputError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("输入格式错误: %v", e.Err)
	}
	return fmt.Sprintf("输入格式错误（第 %d 行 %q）: %v", e.Line, e.Text, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}
