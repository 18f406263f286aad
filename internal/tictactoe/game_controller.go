package tictactoe

import (
	"github.com/rocketscienceinc/t3ttt/internal/entity"
)

// GameController holds the board of one game and applies commands to it.
// It is meant to be owned by a single caller and is not safe for concurrent use.
type GameController struct {
	board entity.Board
}

func NewGameController(board entity.Board) *GameController {
	return &GameController{
		board: board,
	}
}

// Board returns the current board.
func (that *GameController) Board() entity.Board {
	return that.board
}

// ClaimField lets player claim field (i, j) and reports whether the claim took effect.
// Claims on taken fields, out of turn or after the game is over leave the board unchanged.
func (that *GameController) ClaimField(i, j int, player entity.FieldState) (entity.Board, bool) {
	before := that.board
	that.board = that.board.ClaimField(i, j, player)

	return that.board, that.board != before
}

// ClearBoard resets the board to an empty grid with X to move.
func (that *GameController) ClearBoard() entity.Board {
	that.board = that.board.Clear()

	return that.board
}
