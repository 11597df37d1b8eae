package engine

import "errors"

var ErrNoSuchPlayer = errors.New("no such player")
var ErrRoundClosed = errors.New("round is not accepting selections")
var ErrInvalidSelection = errors.New("invalid selection")

type Selection int32

const (
	SelectionEmpty Selection = iota
	SelectionRock
	SelectionPaper
	SelectionScissors
)

func (s Selection) Valid() bool {
	return s >= SelectionEmpty && s <= SelectionScissors
}

func (s Selection) String() string {
	switch s {
	case SelectionEmpty:
		return "empty"
	case SelectionRock:
		return "rock"
	case SelectionPaper:
		return "paper"
	case SelectionScissors:
		return "scissors"
	default:
		return "invalid"
	}
}

type State int32

const (
	StateCanceled State = -1
	StateReady    State = 0
	StateStart    State = 1
	StateFinished State = 2
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateStart:
		return "start"
	case StateFinished:
		return "finished"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Open reports whether selections may still be written.
func (s State) Open() bool {
	return s == StateReady || s == StateStart
}

type Winner int32

const (
	WinnerNone    Winner = 0
	WinnerPlayer1 Winner = 1
	WinnerPlayer2 Winner = 2
)

// beats[a] is the selection a defeats.
var beats = map[Selection]Selection{
	SelectionRock:     SelectionScissors,
	SelectionScissors: SelectionPaper,
	SelectionPaper:    SelectionRock,
}

// Resolve decides a round. Equal selections draw, an empty selection loses
// to any real one.
func Resolve(p1, p2 Selection) Winner {
	switch {
	case p1 == p2:
		return WinnerNone
	case p1 == SelectionEmpty:
		return WinnerPlayer2
	case p2 == SelectionEmpty:
		return WinnerPlayer1
	case beats[p1] == p2:
		return WinnerPlayer1
	default:
		return WinnerPlayer2
	}
}

func (w Winner) String() string {
	switch w {
	case WinnerPlayer1:
		return "player1"
	case WinnerPlayer2:
		return "player2"
	default:
		return "none"
	}
}
