package tower

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParsePieces 每行读取 "类型 宽度 强度 花费"，行的顺序决定构件的 ID
func ParsePieces(r io.Reader) ([]Piece, error) {
	var pieces []Piece

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 4 {
			return nil, &domain.InputError{Line: line, Text: text, Err: fmt.Errorf("需要 4 个字段，实际为 %d 个", len(fields))}
		}

		var numbers [3]int
		for i, field := range fields[1:] {
			n, err := strconv.Atoi(field)
			if err != nil {
				return nil, &domain.InputError{Line: line, Text: text, Err: err}
			}
			numbers[i] = n
		}

		piece := Piece{
			ID:       len(pieces),
			Kind:     Kind(fields[0]),
			Width:    numbers[0],
			Strength: numbers[1],
			Cost:     numbers[2],
		}
		if err := validate.Struct(piece); err != nil {
			return nil, &domain.InputError{Line: line, Text: text, Err: err}
		}

		pieces = append(pieces, piece)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return pieces, nil
}
