package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"connect-four-engine/internal/board"
	"connect-four-engine/internal/config"
	"connect-four-engine/internal/game"
	"connect-four-engine/internal/search"
)

type playOptions struct {
	config   string
	p1, p2   string
	p1Depth  int
	p2Depth  int
	strategy string
	rows     int
	cols     int
	quiet    bool
}

func newPlayCmd() *cobra.Command {
	opts := playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a local match between two agents",
		Example: `  connect4 play --p1 human --p2 agent --p2-depth 5
  connect4 play --p1 agent --p2 random --strategy expectimax
  connect4 play --config match.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mc, err := opts.matchConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runPlay(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), mc, opts.quiet)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.config, "config", "", "YAML match file; flags given explicitly override it")
	f.StringVar(&opts.p1, "p1", config.AgentHuman, "player 1: agent, random or human")
	f.StringVar(&opts.p2, "p2", config.AgentSearch, "player 2: agent, random or human")
	f.IntVar(&opts.p1Depth, "p1-depth", 4, "search depth for player 1")
	f.IntVar(&opts.p2Depth, "p2-depth", 4, "search depth for player 2")
	f.StringVar(&opts.strategy, "strategy", search.AlphaBeta.String(), "strategy used by search agents")
	f.IntVar(&opts.rows, "rows", board.DefaultRows, "board rows")
	f.IntVar(&opts.cols, "cols", board.DefaultCols, "board columns")
	f.BoolVar(&opts.quiet, "quiet", false, "print only the result")
	return cmd
}

// matchConfig merges the match file, if any, with the flags the user set.
func (o playOptions) matchConfig(cmd *cobra.Command) (*config.MatchConfig, error) {
	kind, err := search.ParseKind(o.strategy)
	if err != nil {
		return nil, err
	}

	mc := &config.MatchConfig{
		Rows:    o.rows,
		Cols:    o.cols,
		Player1: config.AgentSpec{Type: o.p1, Strategy: kind, Depth: o.p1Depth},
		Player2: config.AgentSpec{Type: o.p2, Strategy: kind, Depth: o.p2Depth},
	}
	if o.config == "" {
		return mc, mc.Validate()
	}

	fromFile, err := config.LoadMatchConfig(o.config)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("rows") {
		fromFile.Rows = o.rows
	}
	if f.Changed("cols") {
		fromFile.Cols = o.cols
	}
	if f.Changed("p1") {
		fromFile.Player1.Type = o.p1
	}
	if f.Changed("p2") {
		fromFile.Player2.Type = o.p2
	}
	if f.Changed("p1-depth") {
		fromFile.Player1.Depth = o.p1Depth
	}
	if f.Changed("p2-depth") {
		fromFile.Player2.Depth = o.p2Depth
	}
	if f.Changed("strategy") {
		fromFile.Player1.Strategy = kind
		fromFile.Player2.Strategy = kind
	}
	return fromFile, fromFile.Validate()
}

func runPlay(ctx context.Context, in io.Reader, out io.Writer, mc *config.MatchConfig, quiet bool) error {
	g, err := board.New(mc.Rows, mc.Cols)
	if err != nil {
		return err
	}

	// one buffer for both seats so two humans can share the terminal
	lines := bufio.NewReader(in)
	var agents [2]game.Agent
	for i, spec := range mc.Specs() {
		agents[i] = newAgent(spec, fmt.Sprintf("player%d", i+1), lines, out)
	}
	log.Info().Str("player1", agents[0].Name()).Str("player2", agents[1].Name()).Msg("match starting")

	var observe func(game.Ply)
	if !quiet {
		fmt.Fprintln(out, g)
		observe = func(p game.Ply) {
			fmt.Fprintf(out, "\n%d. %s (%s) plays column %d\n%s\n", p.Number, p.Agent, p.Piece, p.Column, p.Board)
		}
	}

	result, err := game.RunMatch(ctx, g, agents, observe)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, result)
	return nil
}

func newAgent(spec config.AgentSpec, label string, in io.Reader, out io.Writer) game.Agent {
	switch spec.Type {
	case config.AgentSearch:
		return game.NewSearchAgent(spec.Strategy, spec.Depth)
	case config.AgentRandom:
		return game.RandomAgent{}
	default:
		if spec.Name != "" {
			label = spec.Name
		}
		return game.NewHumanAgent(label, in, out)
	}
}
