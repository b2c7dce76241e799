package handler

import (
	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
)

// HandleCreateArray spawns an array with one cell per value. The column
// count falls back to the configured default only when it is absent; an
// explicit zero is rejected like any other count below one.
func HandleCreateArray(a action.CreateArray, deps *Deps) action.Response {
	cols := deps.Layout.DefaultColumns
	if a.NumColumns != nil {
		cols = *a.NumColumns
	}
	id, err := deps.World.SpawnArray(a.Values, cols, transformOf(a.Translation, a.Scale))
	if err != nil {
		return action.Failure(err)
	}
	deps.Log.Debug("array created",
		zap.Uint64("array", uint64(id)),
		zap.Int("len", len(a.Values)),
		zap.Int("columns", cols),
	)
	return action.EntityResult(id)
}

func HandleInsertToArray(a action.InsertToArray, deps *Deps) action.Response {
	if _, err := deps.World.Insert(a.Array, a.Index, a.Value, spawnTransform(a.Translation, deps)); err != nil {
		return action.Failure(err)
	}
	return action.None()
}

func HandleSwapInArray(a action.SwapInArray, deps *Deps) action.Response {
	if err := deps.World.Swap(a.Array, a.I, a.J); err != nil {
		return action.Failure(err)
	}
	return action.None()
}

// HandlePopFromArray removes a cell and answers with the value it held.
func HandlePopFromArray(a action.PopFromArray, deps *Deps) action.Response {
	_, value, err := deps.World.Pop(a.Array, a.Index)
	if err != nil {
		return action.Failure(err)
	}
	return action.TextResult(value)
}

// HandleSetInArray replaces the value at index. The old cell is retired
// asynchronously by the lifecycle system.
func HandleSetInArray(a action.SetInArray, deps *Deps) action.Response {
	if _, err := deps.World.Set(a.Array, a.Index, a.Value, spawnTransform(a.Translation, deps)); err != nil {
		return action.Failure(err)
	}
	return action.None()
}

// HandleCreateArrayFromSlice copies a range of cells into a new array.
func HandleCreateArrayFromSlice(a action.CreateArrayFromSlice, deps *Deps) action.Response {
	id, err := deps.World.Slice(a.Array, a.Begin, a.End, a.Offset())
	if err != nil {
		return action.Failure(err)
	}
	return action.EntityResult(id)
}

func HandleGetArrayContents(a action.GetArrayContents, deps *Deps) action.Response {
	values, err := deps.World.Contents(a.Array)
	if err != nil {
		return action.Failure(err)
	}
	return action.TextsResult(values)
}

func HandleGetArrayContentEntities(a action.GetArrayContentEntities, deps *Deps) action.Response {
	ids, err := deps.World.Entities(a.Array)
	if err != nil {
		return action.Failure(err)
	}
	return action.EntitiesResult(ids)
}

func HandleGetArrayContentCoordinates(a action.GetArrayContentCoordinates, deps *Deps) action.Response {
	coords, err := deps.World.Coordinates(a.Array)
	if err != nil {
		return action.Failure(err)
	}
	return action.VectorsResult(coords)
}
