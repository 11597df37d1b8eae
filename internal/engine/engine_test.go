package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	E, R, P, S := SelectionEmpty, SelectionRock, SelectionPaper, SelectionScissors
	cases := []struct {
		p1, p2 Selection
		want   Winner
	}{
		{E, E, WinnerNone},
		{E, R, WinnerPlayer2},
		{E, P, WinnerPlayer2},
		{E, S, WinnerPlayer2},
		{R, E, WinnerPlayer1},
		{R, R, WinnerNone},
		{R, P, WinnerPlayer2},
		{R, S, WinnerPlayer1},
		{P, E, WinnerPlayer1},
		{P, R, WinnerPlayer1},
		{P, P, WinnerNone},
		{P, S, WinnerPlayer2},
		{S, E, WinnerPlayer1},
		{S, R, WinnerPlayer2},
		{S, P, WinnerPlayer1},
		{S, S, WinnerNone},
	}

	for _, tc := range cases {
		t.Run(tc.p1.String()+"_vs_"+tc.p2.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.p1, tc.p2))
		})
	}
}
