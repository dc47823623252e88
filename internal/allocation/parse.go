package allocation

import (
	"bufio"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/ga-lab/internal/domain"
)

var errNotFinite = errors.New("数字必须是有限值")

// ParseNumbers 每行读取一个实数，空行会被忽略
func ParseNumbers(r io.Reader) ([]float64, error) {
	var numbers []float64

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		x, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &domain.InputError{Line: line, Text: text, Err: err}
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, &domain.InputError{Line: line, Text: text, Err: errNotFinite}
		}

		numbers = append(numbers, x)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return numbers, nil
}
