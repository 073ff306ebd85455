package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"connect-four-engine/internal/board"
	"connect-four-engine/internal/search"
)

// Agent types accepted in a match file.
const (
	AgentSearch = "agent"
	AgentRandom = "random"
	AgentHuman  = "human"
)

var ErrUnknownAgent = errors.New("unknown agent type")

type AgentSpec struct {
	Type     string      `yaml:"type"`
	Name     string      `yaml:"name,omitempty"`
	Strategy search.Kind `yaml:"strategy,omitempty"`
	Depth    int         `yaml:"depth,omitempty"`
}

// MatchConfig describes a local game between two agents, e.g.
//
//	rows: 6
//	cols: 7
//	player1: {type: agent, strategy: alphabeta, depth: 4}
//	player2: {type: random}
type MatchConfig struct {
	Rows    int       `yaml:"rows"`
	Cols    int       `yaml:"cols"`
	Player1 AgentSpec `yaml:"player1"`
	Player2 AgentSpec `yaml:"player2"`
}

func LoadMatchConfig(path string) (*MatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read match config: %w", err)
	}
	return ParseMatchConfig(data)
}

func ParseMatchConfig(data []byte) (*MatchConfig, error) {
	mc := &MatchConfig{Rows: board.DefaultRows, Cols: board.DefaultCols}
	if err := yaml.Unmarshal(data, mc); err != nil {
		return nil, fmt.Errorf("parse match config: %w", err)
	}
	if err := mc.Validate(); err != nil {
		return nil, err
	}
	return mc, nil
}

func (mc *MatchConfig) Validate() error {
	if mc.Rows < board.ConnectLength || mc.Cols < board.ConnectLength {
		return fmt.Errorf("%w: %dx%d", ErrBoardTooSmall, mc.Rows, mc.Cols)
	}
	for i, spec := range []AgentSpec{mc.Player1, mc.Player2} {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("player%d: %w", i+1, err)
		}
	}
	return nil
}

func (s AgentSpec) Validate() error {
	switch s.Type {
	case AgentSearch:
		if s.Depth < 0 || s.Depth > MaxBotDepth {
			return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidDepth, s.Depth, MaxBotDepth)
		}
	case AgentRandom, AgentHuman:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAgent, s.Type)
	}
	return nil
}

func (mc *MatchConfig) Specs() [2]AgentSpec {
	return [2]AgentSpec{mc.Player1, mc.Player2}
}
