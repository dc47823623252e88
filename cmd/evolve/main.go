package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/ga-lab/internal/config"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
	"github.com/sysu-ecnc-dev/ga-lab/internal/evolution"
	"github.com/sysu-ecnc-dev/ga-lab/internal/runner"
)

type options struct {
	seed     uint64
	asJSON   bool
	progress bool
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "evolve <problem> <file> <seconds>",
		Short: "用遗传算法求解数字分配问题（1）或搭塔问题（2）",
		Long: `evolve 读取问题的输入文件，在给定的秒数内演化，然后输出找到的最优解。

  problem: 1 或 allocation（40 个数字分配到 4x10 的网格）
           2 或 tower（用门、墙、瞭望台搭一座塔）`,
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvolve(cmd, args, opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "随机数种子，0 表示随机生成")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "以 JSON 格式输出结果")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "每一代结束后在 stderr 输出统计信息")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "输出调试日志")

	return cmd
}

func runEvolve(cmd *cobra.Command, args []string, opts *options) error {
	// 在读取文件之前就拒绝未知的问题类型
	kind, err := domain.ParseProblemKind(args[0])
	if err != nil {
		return err
	}

	seconds, err := strconv.Atoi(args[2])
	if err != nil || seconds < 0 {
		return fmt.Errorf("运行时间必须是非负整数: %q", args[2])
	}

	input, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("无法读取输入文件: %w", err)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("无法加载配置: %w", err)
	}

	var factories []runner.ObserverFactory
	if opts.progress {
		factories = append(factories, progressObserver(cmd.ErrOrStderr()))
	}
	rn := runner.New(cfg, logger, factories...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := rn.Run(ctx, &domain.RunRequest{
		ID:          uuid.NewString(),
		Problem:     kind,
		Input:       string(input),
		TimeSeconds: seconds,
		Seed:        opts.seed,
	})
	if err != nil {
		if result == nil || !errors.Is(err, context.Canceled) {
			return err
		}
		// 被中断时仍然输出目前的最优解
		logger.Warn("演化被中断", slog.String("error", err.Error()))
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return printResult(cmd.OutOrStdout(), result)
}

func printResult(w io.Writer, result *domain.RunResult) error {
	lines := []string{
		"最优解:",
		result.BestText,
		fmt.Sprintf("适应度: %v", result.BestFitness),
	}
	if result.Problem == domain.ProblemTower {
		lines = append(lines, fmt.Sprintf("得分: %v", result.Score))
	}
	lines = append(lines,
		fmt.Sprintf("总代数: %d", result.Generations),
		fmt.Sprintf("找到最优解的代数: %d", result.FoundGeneration),
		fmt.Sprintf("随机数种子: %d", result.Seed),
	)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func progressObserver(w io.Writer) runner.ObserverFactory {
	return func(domain.ProblemKind) evolution.Observer {
		return evolution.ObserverFunc(func(s evolution.GenerationStats) {
			fmt.Fprintf(w, "第 %d 代  最优 %.4f  平均 %.4f  最差 %.4f  历史最优 %.4f（第 %d 代）  %s\n",
				s.Generation, s.Best, s.Mean, s.Worst, s.BestEver, s.FoundGeneration, s.Elapsed.Round(time.Millisecond))
		})
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
