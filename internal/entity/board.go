package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Size is the length of a board side.
const Size = 3

type Status string

const (
	StatusOngoing Status = "ongoing"
	StatusWon     Status = "won"
	StatusDraw    Status = "draw"
)

var ErrCorruptBoard = errors.New("corrupt board")

// WinCombos lists every winning line as (row, column) pairs: 3 rows, 3 columns, 2 diagonals.
var WinCombos = [8][Size][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Board is a tic-tac-toe grid together with the player whose move is next.
//
// Board has value semantics: commands return a new Board and never modify the receiver,
// so a Board can be shared freely between readers.
type Board struct {
	fields [Size][Size]FieldState
	turn   FieldState
}

// NewBoard returns an empty board with X to move.
func NewBoard() Board {
	return Board{turn: PlayerX}
}

// Field returns the state of the field in row i, column j. It panics if i or j is outside [0, Size).
func (that Board) Field(i, j int) FieldState {
	mustBeOnBoard(i, j)

	return that.fields[i][j]
}

// Turn returns the player whose claim comes next.
func (that Board) Turn() FieldState {
	return that.turn
}

// Winner returns the player occupying a complete line, or Empty when there is none.
// Empty is returned both for a draw and for a game still in progress, so callers check IsOver first.
func (that Board) Winner() FieldState {
	for _, combo := range WinCombos {
		a := that.fields[combo[0][0]][combo[0][1]]
		b := that.fields[combo[1][0]][combo[1][1]]
		c := that.fields[combo[2][0]][combo[2][1]]

		if a != Empty && a == b && b == c {
			return a
		}
	}

	return Empty
}

// IsOver reports whether a line is complete or every field is claimed.
func (that Board) IsOver() bool {
	return that.Winner() != Empty || that.isFull()
}

func (that Board) Status() Status {
	switch {
	case that.Winner() != Empty:
		return StatusWon
	case that.isFull():
		return StatusDraw
	default:
		return StatusOngoing
	}
}

// ClaimedCount returns the number of non-empty fields.
func (that Board) ClaimedCount() int {
	claimed := 0
	for i := range that.fields {
		for j := range that.fields[i] {
			if that.fields[i][j] != Empty {
				claimed++
			}
		}
	}

	return claimed
}

// ClaimField returns the board after player claims field (i, j) and the turn passes to the opponent.
//
// The claim is ignored, and the receiver returned unchanged, when the field is taken, the game is over
// or it is not player's turn. Coordinates outside the board panic.
func (that Board) ClaimField(i, j int, player FieldState) Board {
	mustBeOnBoard(i, j)

	if player != that.turn || that.fields[i][j] != Empty || that.IsOver() {
		return that
	}

	that.fields[i][j] = player
	that.turn = player.Opponent()

	return that
}

// Clear returns an empty board with X to move.
func (that Board) Clear() Board {
	return NewBoard()
}

func (that Board) isFull() bool {
	return that.ClaimedCount() == Size*Size
}

func (that Board) count(player FieldState) int {
	n := 0
	for i := range that.fields {
		for j := range that.fields[i] {
			if that.fields[i][j] == player {
				n++
			}
		}
	}

	return n
}

func (that Board) hasLine(player FieldState) bool {
	for _, combo := range WinCombos {
		if that.fields[combo[0][0]][combo[0][1]] == player &&
			that.fields[combo[1][0]][combo[1][1]] == player &&
			that.fields[combo[2][0]][combo[2][1]] == player {
			return true
		}
	}

	return false
}

// validate checks that the board can be reached from an empty board by alternating claims.
func (that Board) validate() error {
	x, o := that.count(PlayerX), that.count(PlayerO)

	switch {
	case x == o && that.turn != PlayerX:
		return fmt.Errorf("%w: %d X and %d O but turn is %s", ErrCorruptBoard, x, o, that.turn)
	case x == o+1 && that.turn != PlayerO:
		return fmt.Errorf("%w: %d X and %d O but turn is %s", ErrCorruptBoard, x, o, that.turn)
	case x != o && x != o+1:
		return fmt.Errorf("%w: %d X and %d O", ErrCorruptBoard, x, o)
	}

	xWon, oWon := that.hasLine(PlayerX), that.hasLine(PlayerO)

	switch {
	case xWon && oWon:
		return fmt.Errorf("%w: both players have a line", ErrCorruptBoard)
	case xWon && x != o+1:
		return fmt.Errorf("%w: X won but O moved afterwards", ErrCorruptBoard)
	case oWon && x != o:
		return fmt.Errorf("%w: O won but X moved afterwards", ErrCorruptBoard)
	}

	return nil
}

type jsonBoard struct {
	Fields [][]FieldState `json:"fields"`
	Turn   FieldState     `json:"turn"`
}

func (that Board) MarshalJSON() ([]byte, error) {
	fields := make([][]FieldState, Size)
	for i := range fields {
		fields[i] = that.fields[i][:]
	}

	data, err := json.Marshal(jsonBoard{Fields: fields, Turn: that.turn})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}

	return data, nil
}

// UnmarshalJSON decodes a board and rejects any grid that alternating claims cannot produce.
func (that *Board) UnmarshalJSON(data []byte) error {
	var decoded jsonBoard
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptBoard, err)
	}

	if len(decoded.Fields) != Size {
		return fmt.Errorf("%w: %d rows", ErrCorruptBoard, len(decoded.Fields))
	}

	board := Board{turn: decoded.Turn}
	for i, row := range decoded.Fields {
		if len(row) != Size {
			return fmt.Errorf("%w: row %d has %d fields", ErrCorruptBoard, i, len(row))
		}

		copy(board.fields[i][:], row)
	}

	if err := board.validate(); err != nil {
		return err
	}

	*that = board

	return nil
}

func mustBeOnBoard(i, j int) {
	if i < 0 || i >= Size || j < 0 || j >= Size {
		panic(fmt.Sprintf("field (%d, %d) is outside the %dx%d board", i, j, Size, Size))
	}
}
