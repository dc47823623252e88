package tower

import (
	"fmt"
	"strings"
)

// Kind 可以是任意字符串，只有 Door、Wall、Lookout 能组成合法的塔
type Kind string

const (
	KindDoor    Kind = "Door"
	KindWall    Kind = "Wall"
	KindLookout Kind = "Lookout"
)

// Piece: 一块塔的构件，ID 为其在输入文件中的行号（从 0 开始）
type Piece struct {
	ID       int  `json:"id" validate:"gte=0"`
	Kind     Kind `json:"kind" validate:"required"`
	Width    int  `json:"width"`
	Strength int  `json:"strength"`
	Cost     int  `json:"cost"`
}

func (p Piece) String() string {
	return fmt.Sprintf("%s %d %d %d", p.Kind, p.Width, p.Strength, p.Cost)
}

// Stack: 从下往上排列的构件，同一个构件最多出现一次
type Stack []Piece

func (s Stack) Contains(id int) bool {
	for _, p := range s {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s Stack) Cost() int {
	total := 0
	for _, p := range s {
		total += p.Cost
	}
	return total
}

func (s Stack) String() string {
	lines := make([]string, len(s))
	for i, p := range s {
		lines[i] = p.String()
	}
	return strings.Join(lines, "\n")
}
