// Package render maps boards to what the page shows. It never changes a board.
package render

import (
	"github.com/rocketscienceinc/t3ttt/internal/entity"
)

const (
	labelDraw = "It's a draw!"
)

// Glyph returns the symbol drawn in a field.
func Glyph(state entity.FieldState) string {
	switch state {
	case entity.PlayerX:
		return "X"
	case entity.PlayerO:
		return "O"
	default:
		return " "
	}
}

// Label returns the status line shown under the board.
func Label(board entity.Board) string {
	if !board.IsOver() {
		return "Turn: " + Glyph(board.Turn())
	}

	if board.Winner() == entity.Empty {
		return labelDraw
	}

	return "Winner: " + Glyph(board.Winner())
}

// BoardView is a board as consumed by the page and the socket protocol.
type BoardView struct {
	Fields     [][]string    `json:"fields"`
	Turn       string        `json:"turn"`
	Status     entity.Status `json:"status"`
	Over       bool          `json:"over"`
	Winner     string        `json:"winner"`
	Label      string        `json:"label"`
	CanRestart bool          `json:"can_restart"`
}

func NewBoardView(board entity.Board) *BoardView {
	fields := make([][]string, entity.Size)
	for i := range fields {
		fields[i] = make([]string, entity.Size)
		for j := range fields[i] {
			fields[i][j] = Glyph(board.Field(i, j))
		}
	}

	over := board.IsOver()

	return &BoardView{
		Fields:     fields,
		Turn:       Glyph(board.Turn()),
		Status:     board.Status(),
		Over:       over,
		Winner:     Glyph(board.Winner()),
		Label:      Label(board),
		CanRestart: over,
	}
}
