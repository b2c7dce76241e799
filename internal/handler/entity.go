package handler

import (
	"fmt"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/component"
)

// HandleDestroy despawns an entity and every descendant.
func HandleDestroy(a action.Destroy, deps *Deps) action.Response {
	if err := deps.World.Despawn(a.Entity); err != nil {
		return action.Failure(err)
	}
	return action.None()
}

// HandleSetTarget starts a fixed-goal animation. Rotation is kept; scale
// defaults to the entity's current scale.
func HandleSetTarget(a action.SetTarget, deps *Deps) action.Response {
	cur, ok := deps.World.Transforms.Get(a.Entity)
	if !ok {
		return action.Failure(fmt.Errorf("set target %d: %w", a.Entity, action.ErrEntityNotFound))
	}
	goal := *cur
	goal.Translation = a.Translation.Vec3()
	if a.Scale != nil {
		goal.Scale = a.Scale.Vec3()
	}
	if err := deps.World.SetTarget(a.Entity, goal, a.Duration); err != nil {
		return action.Failure(err)
	}
	return action.None()
}

// HandleSetParent reparents child under parent.
func HandleSetParent(a action.SetParent, deps *Deps) action.Response {
	if err := deps.World.SetParent(a.Child, a.Parent); err != nil {
		return action.Failure(err)
	}
	return action.None()
}

// HandleGetPosition reports a world position, relative to the reference
// entity when one is given.
func HandleGetPosition(a action.GetPosition, deps *Deps) action.Response {
	pos, err := deps.World.Position(a.Entity, a.Reference)
	if err != nil {
		return action.Failure(err)
	}
	return action.VectorResult(pos)
}

func HandleGetValue(a action.GetValue, deps *Deps) action.Response {
	v, err := deps.World.Value(a.Entity)
	if err != nil {
		return action.Failure(err)
	}
	return action.TextResult(v)
}

// HandleClear empties the scene.
func HandleClear(_ action.Clear, deps *Deps) action.Response {
	n := deps.World.Clear()
	deps.Log.Info(fmt.Sprintf("scene cleared  entities=%d", n))
	return action.None()
}

func transformOf(translation, scale *action.Vector) component.Transform {
	t := component.Identity()
	if translation != nil {
		t.Translation = translation.Vec3()
	}
	if scale != nil {
		t.Scale = scale.Vec3()
	}
	return t
}
