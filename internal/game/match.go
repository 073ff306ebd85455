package game

import (
	"context"
	"fmt"

	"connect-four-engine/internal/board"
)

// Ply is one placement in a local match.
type Ply struct {
	Number int
	Piece  board.Cell
	Agent  string
	Column int
	Row    int
	Board  *board.Grid
}

type MatchResult struct {
	Winner     board.Cell
	Draw       bool
	ConcededBy board.Cell
	Moves      []int
}

func (r *MatchResult) String() string {
	switch {
	case r.Draw:
		return fmt.Sprintf("draw after %d moves", len(r.Moves))
	case r.ConcededBy != board.Empty:
		return fmt.Sprintf("%s wins, %s conceded after %d moves", r.Winner, r.ConcededBy, len(r.Moves))
	default:
		return fmt.Sprintf("%s wins after %d moves", r.Winner, len(r.Moves))
	}
}

// RunMatch alternates agents[0] (Player1) and agents[1] (Player2) on b
// until one connects four, the board fills or an agent concedes. observe,
// if non-nil, sees every ply. b is played on in place.
func RunMatch(ctx context.Context, b *board.Grid, agents [2]Agent, observe func(Ply)) (*MatchResult, error) {
	result := &MatchResult{}
	piece := board.Player1
	if b.MoveCount()%2 == 1 {
		piece = board.Player2
	}

	for !b.Terminal() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		agent := agents[piece-1]
		col, ok := agent.NextMove(piece, b.Copy())
		if !ok {
			result.ConcededBy = piece
			result.Winner = piece.Opponent()
			return result, nil
		}
		if !b.Placeable(col) {
			return result, fmt.Errorf("%w: %s played %d", ErrIllegalAgentMove, agent.Name(), col)
		}

		row, err := b.Place(piece, col)
		if err != nil {
			return result, err
		}
		result.Moves = append(result.Moves, col)
		if observe != nil {
			observe(Ply{
				Number: len(result.Moves),
				Piece:  piece,
				Agent:  agent.Name(),
				Column: col,
				Row:    row,
				Board:  b.Copy(),
			})
		}
		piece = piece.Opponent()
	}

	result.Winner = b.Winner()
	result.Draw = b.HasDraw()
	return result, nil
}
