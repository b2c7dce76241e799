package data

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

type countingSubmitter struct {
	sent   []action.CreateArray
	failAt int
}

func (c *countingSubmitter) Submit(_ context.Context, act action.Action) (action.Response, error) {
	c.sent = append(c.sent, act.(action.CreateArray))
	if len(c.sent) == c.failAt {
		return action.Failure(fmt.Errorf("create: %w", action.ErrInvalidArgument)), nil
	}
	return action.EntityResult(ecs.NewEntityID(uint32(len(c.sent)), 0)), nil
}

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
arrays:
  - values: ["5", "3", "0"]
  - values: [1, 2]
    columns: 1
    x: 300
    y: -50
`), 0o644))

	s, err := LoadScene(path)
	require.NoError(t, err)
	require.Len(t, s.Arrays, 2)
	assert.Equal(t, []string{"1", "2"}, s.Arrays[1].Values)
	one := 1
	assert.Equal(t, ArrayEntry{Values: []string{"1", "2"}, Columns: &one, X: 300, Y: -50}, s.Arrays[1])
	assert.Nil(t, s.Arrays[0].Columns)

	sub := &countingSubmitter{}
	ids, err := s.Seed(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, []ecs.EntityID{ecs.NewEntityID(1, 0), ecs.NewEntityID(2, 0)}, ids)
	assert.Equal(t, &action.Vector{X: 300, Y: -50}, sub.sent[1].Translation)
	assert.Nil(t, sub.sent[0].NumColumns)
	assert.Equal(t, &one, sub.sent[1].NumColumns)
}

func TestMissingSceneFallsBack(t *testing.T) {
	s, err := LoadScene(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultScene(), s)
}

func TestBadScene(t *testing.T) {
	_, err := ParseScene([]byte("arrays: {"))
	assert.Error(t, err)

	_, err = ParseScene([]byte("arrays:\n  - values: [a]\n    columns: -1\n"))
	assert.Error(t, err)

	_, err = ParseScene([]byte("arrays:\n  - values: [a]\n    columns: 0\n"))
	assert.Error(t, err)
}

func TestSeedStopsOnFailure(t *testing.T) {
	s := &Scene{Arrays: []ArrayEntry{{Values: []string{"a"}}, {}, {Values: []string{"c"}}}}
	sub := &countingSubmitter{failAt: 2}
	ids, err := s.Seed(context.Background(), sub)
	assert.ErrorIs(t, err, action.ErrInvalidArgument)
	assert.Len(t, ids, 1)
	assert.Len(t, sub.sent, 2)
}
