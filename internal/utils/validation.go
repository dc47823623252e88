package utils

import (
	"fmt"

	"github.com/sysu-ecnc-dev/ga-lab/internal/allocation"
	"github.com/sysu-ecnc-dev/ga-lab/internal/tower"
)

// ValidateGridConservation 检查网格中的数字与输入的多重集合完全一致
func ValidateGridConservation(g allocation.Grid, want allocation.Occurrences) error {
	got := allocation.NewOccurrences(g.Values())
	if got.Equal(want) {
		return nil
	}

	for _, v := range want.Keys() {
		if got.Count(v) != want.Count(v) {
			return fmt.Errorf("数字 %v 应出现 %d 次，实际出现 %d 次", v, want.Count(v), got.Count(v))
		}
	}
	for _, v := range got.Keys() {
		if want.Count(v) == 0 {
			return fmt.Errorf("数字 %v 不在输入中", v)
		}
	}
	return nil
}

// ValidateStackPieces 检查塔中没有重复的构件，并且每个构件都来自输入清单且未被修改
func ValidateStackPieces(s tower.Stack, manifest []tower.Piece) error {
	seen := make(map[int]bool)
	for i, piece := range s {
		if seen[piece.ID] {
			return fmt.Errorf("第 %d 层的构件 %d 重复出现", i, piece.ID)
		}
		seen[piece.ID] = true

		if piece.ID < 0 || piece.ID >= len(manifest) {
			return fmt.Errorf("第 %d 层的构件 %d 不在输入清单中", i, piece.ID)
		}
		if manifest[piece.ID] != piece {
			return fmt.Errorf("第 %d 层的构件 %d 与输入清单不一致", i, piece.ID)
		}
	}
	return nil
}
