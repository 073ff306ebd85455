package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSuggestTakesTheWin(t *testing.T) {
	out, err := execute(t, "", "suggest",
		"--board", "......./......./......./......./222..../111....",
		"--strategy", "minimax", "--depth", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "column 3\n"), out)
	assert.Contains(t, out, "minimax depth 2")
}

func TestSuggestInfersSideToMove(t *testing.T) {
	out, err := execute(t, "", "suggest", "--board", "..../..../..../1...", "--depth", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "column")
}

func TestSuggestOnFinishedBoardConcedes(t *testing.T) {
	out, err := execute(t, "", "suggest", "--board", "2.../2.../2.../1111", "--player", "2")
	require.NoError(t, err)
	assert.Equal(t, "no move: player2 concedes\n", out)
}

func TestSuggestRejectsBadFlags(t *testing.T) {
	tests := [][]string{
		{"suggest", "--strategy", "mcts"},
		{"suggest", "--depth", "20"},
		{"suggest", "--player", "3"},
		{"suggest", "--board", "1../..."},
		{"suggest", "extra"},
	}
	for _, args := range tests {
		_, err := execute(t, "", args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestPlayAgentAgainstRandom(t *testing.T) {
	out, err := execute(t, "", "play", "--p1", "agent", "--p1-depth", "3", "--p2", "random", "--quiet")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Regexp(t, `^(player1|player2) wins|^draw`, lines[0])
}

func TestPlayHumansShareInput(t *testing.T) {
	// Player1 stacks column 0 while Player2 answers in column 1.
	out, err := execute(t, "0\n1\n0\n1\n0\n1\n0\n", "play", "--p1", "human", "--p2", "human")
	require.NoError(t, err)
	assert.Contains(t, out, "7. player1 (player1) plays column 0")
	assert.True(t, strings.HasSuffix(out, "player1 wins after 7 moves\n"), out)
}

func TestPlayHumanConcedesOnEOF(t *testing.T) {
	out, err := execute(t, "", "play", "--p1", "human", "--p2", "random", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "player2 wins, player1 conceded after 0 moves")
}

func TestPlayFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rows: 4
cols: 5
player1: {type: agent, strategy: expectimax, depth: 2}
player2: {type: random}
`), 0o644))

	out, err := execute(t, "", "play", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "expectimax")
	assert.Contains(t, out, "plays column")

	_, err = execute(t, "", "play", "--config", path, "--p2", "robot")
	assert.Error(t, err)
}
