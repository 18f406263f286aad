package entity

import (
	"errors"
	"fmt"
)

var ErrUnknownFieldState = errors.New("unknown field state")

// FieldState is the content of a single field: empty or claimed by one of the players.
type FieldState uint8

const (
	Empty FieldState = iota
	PlayerX
	PlayerO
)

const (
	markX     = "X"
	markO     = "O"
	markEmpty = ""
)

// String returns the display form: a space for an empty field, "X" or "O" otherwise.
func (that FieldState) String() string {
	switch that {
	case PlayerX:
		return markX
	case PlayerO:
		return markO
	default:
		return " "
	}
}

// Opponent returns the other player. Empty has no opponent.
func (that FieldState) Opponent() FieldState {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return Empty
	}
}

func (that FieldState) IsPlayer() bool {
	return that == PlayerX || that == PlayerO
}

func (that FieldState) MarshalText() ([]byte, error) {
	switch that {
	case Empty:
		return []byte(markEmpty), nil
	case PlayerX:
		return []byte(markX), nil
	case PlayerO:
		return []byte(markO), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFieldState, that)
	}
}

func (that *FieldState) UnmarshalText(text []byte) error {
	switch string(text) {
	case markEmpty, " ":
		*that = Empty
	case markX:
		*that = PlayerX
	case markO:
		*that = PlayerO
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFieldState, text)
	}

	return nil
}
