package data

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

// ArrayEntry is one array created at startup.
type ArrayEntry struct {
	Values  []string `yaml:"values"`
	Columns *int     `yaml:"columns"` // nil = layout.default_columns
	X       float32  `yaml:"x"`
	Y       float32  `yaml:"y"`
	Z       float32  `yaml:"z"`
}

// Scene is the seed scene file.
type Scene struct {
	Arrays []ArrayEntry `yaml:"arrays"`
}

// DefaultScene is used when no seed file exists.
func DefaultScene() *Scene {
	return &Scene{Arrays: []ArrayEntry{{Values: []string{"5", "3", "0"}}}}
}

// LoadScene loads a seed scene. A missing file yields DefaultScene.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultScene(), nil
		}
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return ParseScene(raw)
}

func ParseScene(raw []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	for i, a := range s.Arrays {
		if a.Columns != nil && *a.Columns < 1 {
			return nil, fmt.Errorf("scene arrays[%d]: columns must be at least 1, got %d", i, *a.Columns)
		}
	}
	return &s, nil
}

// Submitter sends one action and waits for its response.
type Submitter interface {
	Submit(ctx context.Context, act action.Action) (action.Response, error)
}

// Seed creates every array in s, in file order, and returns their handles.
func (s *Scene) Seed(ctx context.Context, sub Submitter) ([]ecs.EntityID, error) {
	ids := make([]ecs.EntityID, 0, len(s.Arrays))
	for i, a := range s.Arrays {
		resp, err := sub.Submit(ctx, action.CreateArray{
			Values:      a.Values,
			Translation: &action.Vector{X: a.X, Y: a.Y, Z: a.Z},
			NumColumns:  a.Columns,
		})
		if err == nil {
			err = resp.Error()
		}
		if err != nil {
			return ids, fmt.Errorf("seed arrays[%d]: %w", i, err)
		}
		ids = append(ids, resp.Entity)
	}
	return ids, nil
}
