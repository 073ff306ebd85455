package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"connect-four-engine/internal/board"
	"connect-four-engine/internal/config"
	"connect-four-engine/internal/search"
)

type suggestOptions struct {
	board    string
	player   int
	strategy string
	depth    int
}

func newSuggestCmd() *cobra.Command {
	opts := suggestOptions{}
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Print the column a strategy would play",
		Example: `  connect4 suggest --strategy minimax --depth 4
  connect4 suggest --board "......./......./......./......./222..../111...." --player 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.board, "board", "", "position, rows top first separated by '/' (default empty 6x7)")
	f.IntVar(&opts.player, "player", 0, "side to move, 1 or 2 (default inferred from the piece count)")
	f.StringVar(&opts.strategy, "strategy", search.AlphaBeta.String(), "minimax, alphabeta or expectimax")
	f.IntVar(&opts.depth, "depth", 4, "search depth in plies")
	return cmd
}

func runSuggest(cmd *cobra.Command, opts suggestOptions) error {
	g := board.NewStandard()
	if opts.board != "" {
		parsed, err := board.Parse(opts.board)
		if err != nil {
			return err
		}
		g = parsed
	}

	player := board.Cell(opts.player)
	if opts.player == 0 {
		player = board.Player1
		if g.MoveCount()%2 == 1 {
			player = board.Player2
		}
	}
	if !player.Valid() {
		return fmt.Errorf("%w: %d", board.ErrInvalidPlayer, opts.player)
	}

	kind, err := search.ParseKind(opts.strategy)
	if err != nil {
		return err
	}
	if opts.depth < 0 || opts.depth > config.MaxBotDepth {
		return fmt.Errorf("%w: %d not in [0, %d]", config.ErrInvalidDepth, opts.depth, config.MaxBotDepth)
	}

	d := search.New(kind).Decide(player, g, opts.depth)
	out := cmd.OutOrStdout()
	if d.Conceded() {
		fmt.Fprintf(out, "no move: %s concedes\n", player)
		return nil
	}
	fmt.Fprintf(out, "column %d\n", d.Column)
	fmt.Fprintf(out, "%s depth %d: value %.0f, %d leaves, %d nodes, %s\n",
		kind, opts.depth, d.Value, d.Leaves, d.Nodes, d.Elapsed)
	return nil
}
