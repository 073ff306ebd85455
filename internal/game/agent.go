package game

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lukechampine.com/frand"

	"connect-four-engine/internal/board"
	"connect-four-engine/internal/search"
)

// Agent chooses moves in a local match. ok is false when the agent gives
// up; the match then ends with the other side winning.
type Agent interface {
	Name() string
	NextMove(piece board.Cell, b board.Board) (column int, ok bool)
}

// SearchAgent plays the engine's choice at a fixed depth.
type SearchAgent struct {
	Bot  *Bot
	Last search.Decision
}

func NewSearchAgent(kind search.Kind, depth int, opts ...search.Option) *SearchAgent {
	return &SearchAgent{Bot: NewBot(kind, depth, opts...)}
}

func (a *SearchAgent) Name() string { return a.Bot.Name() }

func (a *SearchAgent) NextMove(piece board.Cell, b board.Board) (int, bool) {
	a.Last = a.Bot.engine.Decide(piece, b.Clone(), a.Bot.depth)
	return a.Last.Column, !a.Last.Conceded()
}

// RandomAgent plays a uniformly random legal column.
type RandomAgent struct{}

func (RandomAgent) Name() string { return "random" }

func (RandomAgent) NextMove(_ board.Cell, b board.Board) (int, bool) {
	var open []int
	for c := 0; c < b.Cols(); c++ {
		if b.Placeable(c) {
			open = append(open, c)
		}
	}
	if len(open) == 0 {
		return search.NoMove, false
	}
	return open[frand.Intn(len(open))], true
}

// HumanAgent reads columns from a reader, one per line, prompting on out.
// Bad input is reported and asked again; end of input or "q" concedes.
// Agents built on the same *bufio.Reader share its buffer, so two humans
// can take turns on one terminal.
type HumanAgent struct {
	Label string
	in    *bufio.Reader
	out   io.Writer
}

func NewHumanAgent(label string, in io.Reader, out io.Writer) *HumanAgent {
	return &HumanAgent{Label: label, in: bufio.NewReader(in), out: out}
}

func (h *HumanAgent) Name() string { return h.Label }

func (h *HumanAgent) NextMove(piece board.Cell, b board.Board) (int, bool) {
	for {
		fmt.Fprintf(h.out, "%s (%s) column [0-%d]: ", h.Label, piece, b.Cols()-1)
		raw, err := h.in.ReadString('\n')
		line := strings.TrimSpace(raw)
		if err != nil && line == "" {
			return search.NoMove, false
		}
		if line == "q" || line == "quit" {
			return search.NoMove, false
		}
		col, convErr := strconv.Atoi(line)
		if convErr != nil || !b.Placeable(col) {
			fmt.Fprintf(h.out, "cannot play %q\n", line)
			if err != nil {
				return search.NoMove, false
			}
			continue
		}
		return col, true
	}
}
