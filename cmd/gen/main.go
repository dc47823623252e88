package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
	"github.com/sysu-ecnc-dev/ga-lab/internal/utils"
)

type options struct {
	seed    uint64
	output  string
	integer bool
	lo, hi  float64

	doors, walls, lookouts         int
	maxWidth, maxStrength, maxCost int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "gen <problem>",
		Short:        "随机生成数字分配问题或搭塔问题的输入文件",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseProblemKind(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.output != "" && opts.output != "-" {
				f, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("无法创建输出文件: %w", err)
				}
				defer f.Close()
				w = f
			}

			seed := opts.seed
			if seed == 0 {
				seed = rand.Uint64()
			}
			return generate(w, kind, opts, rand.New(rand.NewPCG(seed, seed)))
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "随机数种子，0 表示随机生成")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "输出文件，- 表示标准输出")

	cmd.Flags().BoolVar(&opts.integer, "integer", false, "分配问题：只生成整数")
	cmd.Flags().Float64Var(&opts.lo, "min", 1, "分配问题：最小值")
	cmd.Flags().Float64Var(&opts.hi, "max", 10, "分配问题：最大值")

	cmd.Flags().IntVar(&opts.doors, "doors", 3, "搭塔问题：门的数量")
	cmd.Flags().IntVar(&opts.walls, "walls", 10, "搭塔问题：墙的数量")
	cmd.Flags().IntVar(&opts.lookouts, "lookouts", 3, "搭塔问题：瞭望台的数量")
	cmd.Flags().IntVar(&opts.maxWidth, "max-width", 10, "搭塔问题：最大宽度")
	cmd.Flags().IntVar(&opts.maxStrength, "max-strength", 10, "搭塔问题：最大强度")
	cmd.Flags().IntVar(&opts.maxCost, "max-cost", 10, "搭塔问题：最大花费")

	return cmd
}

func generate(w io.Writer, kind domain.ProblemKind, opts *options, rng *rand.Rand) error {
	switch kind {
	case domain.ProblemAllocation:
		if opts.hi < opts.lo {
			return fmt.Errorf("最大值 %v 小于最小值 %v", opts.hi, opts.lo)
		}

		var numbers []float64
		if opts.integer {
			numbers = utils.GenerateRandomIntegers(rng, int(opts.lo), int(opts.hi))
		} else {
			numbers = utils.GenerateRandomNumbers(rng, opts.lo, opts.hi)
		}
		for _, x := range numbers {
			if _, err := fmt.Fprintln(w, strconv.FormatFloat(x, 'f', -1, 64)); err != nil {
				return err
			}
		}
	case domain.ProblemTower:
		if opts.doors < 0 || opts.walls < 0 || opts.lookouts < 0 {
			return errors.New("构件数量不能为负数")
		}
		if opts.doors+opts.walls+opts.lookouts == 0 {
			return errors.New("至少需要一个构件")
		}
		if opts.maxWidth <= 0 || opts.maxStrength < 0 || opts.maxCost < 0 {
			return errors.New("宽度上限必须为正数，强度和花费上限不能为负数")
		}

		pieces := utils.GenerateRandomPieces(rng, opts.doors, opts.walls, opts.lookouts, opts.maxWidth, opts.maxStrength, opts.maxCost)
		for _, p := range pieces {
			if _, err := fmt.Fprintln(w, p.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
