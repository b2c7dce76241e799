package handler

import (
	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/config"
	"github.com/visuscript/liveviz/internal/world"
)

// Deps holds shared dependencies injected into all action handlers.
type Deps struct {
	World  *world.State
	Layout config.LayoutConfig
	Log    *zap.Logger
}

// RegisterAll registers every action handler into the registry.
func RegisterAll(reg *Registry) {
	// Entities
	on(reg, HandleDestroy)
	on(reg, HandleSetTarget)
	on(reg, HandleSetParent)
	on(reg, HandleGetPosition)
	on(reg, HandleGetValue)
	on(reg, HandleClear)

	// Arrays
	on(reg, HandleCreateArray)
	on(reg, HandleInsertToArray)
	on(reg, HandleSwapInArray)
	on(reg, HandlePopFromArray)
	on(reg, HandleSetInArray)
	on(reg, HandleCreateArrayFromSlice)

	// Array queries
	on(reg, HandleGetArrayContents)
	on(reg, HandleGetArrayContentEntities)
	on(reg, HandleGetArrayContentCoordinates)
}

// spawnTransform is where a new cell appears, relative to its array, when the
// action carries no translation: just below the grid, flying up into place.
func spawnTransform(v *action.Vector, deps *Deps) component.Transform {
	if v == nil {
		return component.At(component.Vec3{Y: deps.Layout.SpawnOffsetY})
	}
	return component.At(v.Vec3())
}
