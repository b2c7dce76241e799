package scripting

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

func (e *Engine) exports() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"create_array": e.createArray,
		"insert":       e.insert,
		"pop":          e.pop,
		"set":          e.set,
		"swap":         e.swap,
		"contents":     e.contents,
		"entities":     e.entities,
		"coordinates":  e.coordinates,
		"position":     e.position,
		"value":        e.value,
		"set_target":   e.setTarget,
		"set_parent":   e.setParent,
		"destroy":      e.destroy,
		"clear":        e.clear,
		"slice":        e.slice,
		"sleep":        e.sleep,
	}
}

// call submits act and raises a Lua error on any failure.
func (e *Engine) call(L *lua.LState, act action.Action) action.Response {
	resp, err := e.sub.Submit(L.Context(), act)
	if err == nil {
		err = resp.Error()
	}
	if err != nil {
		e.log.Debug("lua action failed", zap.String("action", string(act.Kind())), zap.Error(err))
		L.RaiseError("%s: %s", act.Kind(), err.Error())
	}
	return resp
}

// viz.create_array(values [, {x=, y=, z=, columns=, scale=}]) -> entity
func (e *Engine) createArray(L *lua.LState) int {
	act := action.CreateArray{Values: checkStrings(L, 1)}
	if opts := L.OptTable(2, nil); opts != nil {
		act.Translation = optVector(opts)
		if s, ok := opts.RawGetString("scale").(*lua.LTable); ok {
			act.Scale = optVector(s)
		}
		if c := opts.RawGetString("columns"); c != lua.LNil {
			n := int(lua.LVAsNumber(c))
			act.NumColumns = &n
		}
	}
	L.Push(entityValue(e.call(L, act).Entity))
	return 1
}

// viz.insert(array, index, value [, {x=, y=, z=}])
func (e *Engine) insert(L *lua.LState) int {
	e.call(L, action.InsertToArray{
		Array:       checkEntity(L, 1),
		Index:       L.CheckInt(2),
		Value:       L.CheckString(3),
		Translation: optVector(L.OptTable(4, nil)),
	})
	return 0
}

// viz.pop(array, index) -> value
func (e *Engine) pop(L *lua.LState) int {
	resp := e.call(L, action.PopFromArray{Array: checkEntity(L, 1), Index: L.CheckInt(2)})
	L.Push(lua.LString(resp.Text))
	return 1
}

// viz.set(array, index, value [, {x=, y=, z=}])
func (e *Engine) set(L *lua.LState) int {
	e.call(L, action.SetInArray{
		Array:       checkEntity(L, 1),
		Index:       L.CheckInt(2),
		Value:       L.CheckString(3),
		Translation: optVector(L.OptTable(4, nil)),
	})
	return 0
}

func (e *Engine) swap(L *lua.LState) int {
	e.call(L, action.SwapInArray{Array: checkEntity(L, 1), I: L.CheckInt(2), J: L.CheckInt(3)})
	return 0
}

func (e *Engine) contents(L *lua.LState) int {
	resp := e.call(L, action.GetArrayContents{Array: checkEntity(L, 1)})
	t := L.CreateTable(len(resp.Texts), 0)
	for _, s := range resp.Texts {
		t.Append(lua.LString(s))
	}
	L.Push(t)
	return 1
}

func (e *Engine) entities(L *lua.LState) int {
	resp := e.call(L, action.GetArrayContentEntities{Array: checkEntity(L, 1)})
	t := L.CreateTable(len(resp.Entities), 0)
	for _, id := range resp.Entities {
		t.Append(entityValue(id))
	}
	L.Push(t)
	return 1
}

func (e *Engine) coordinates(L *lua.LState) int {
	resp := e.call(L, action.GetArrayContentCoordinates{Array: checkEntity(L, 1)})
	t := L.CreateTable(len(resp.Vectors), 0)
	for _, v := range resp.Vectors {
		t.Append(vectorValue(L, v))
	}
	L.Push(t)
	return 1
}

// viz.position(entity [, reference]) -> {x=, y=, z=}
func (e *Engine) position(L *lua.LState) int {
	act := action.GetPosition{Entity: checkEntity(L, 1)}
	if L.GetTop() >= 2 {
		act.Reference = checkEntity(L, 2)
	}
	L.Push(vectorValue(L, e.call(L, act).Vector))
	return 1
}

func (e *Engine) value(L *lua.LState) int {
	L.Push(lua.LString(e.call(L, action.GetValue{Entity: checkEntity(L, 1)}).Text))
	return 1
}

// viz.set_target(entity, {x=, y=, z=}, duration [, {x=, y=, z=} scale])
func (e *Engine) setTarget(L *lua.LState) int {
	act := action.SetTarget{
		Entity:   checkEntity(L, 1),
		Duration: float32(L.CheckNumber(3)),
	}
	if v := optVector(L.CheckTable(2)); v != nil {
		act.Translation = *v
	}
	act.Scale = optVector(L.OptTable(4, nil))
	e.call(L, act)
	return 0
}

func (e *Engine) setParent(L *lua.LState) int {
	e.call(L, action.SetParent{Parent: checkEntity(L, 1), Child: checkEntity(L, 2)})
	return 0
}

func (e *Engine) destroy(L *lua.LState) int {
	e.call(L, action.Destroy{Entity: checkEntity(L, 1)})
	return 0
}

func (e *Engine) clear(L *lua.LState) int {
	e.call(L, action.Clear{})
	return 0
}

// viz.slice(array, begin, end [, x [, y]]) -> entity
func (e *Engine) slice(L *lua.LState) int {
	act := action.CreateArrayFromSlice{
		Array: checkEntity(L, 1),
		Begin: L.CheckInt(2),
		End:   L.CheckInt(3),
	}
	if n, ok := L.Get(4).(lua.LNumber); ok {
		x := float32(n)
		act.X = &x
	}
	if n, ok := L.Get(5).(lua.LNumber); ok {
		y := float32(n)
		act.Y = &y
	}
	L.Push(entityValue(e.call(L, act).Entity))
	return 1
}

// viz.sleep(seconds) pauses the script; the simulation keeps ticking.
func (e *Engine) sleep(L *lua.LState) int {
	d := time.Duration(float64(L.CheckNumber(1)) * float64(time.Second))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-L.Context().Done():
		L.RaiseError("sleep: %s", L.Context().Err())
	}
	return 0
}

func checkEntity(L *lua.LState, n int) ecs.EntityID {
	return ecs.EntityID(uint64(L.CheckNumber(n)))
}

func entityValue(id ecs.EntityID) lua.LNumber {
	return lua.LNumber(uint64(id))
}

// checkStrings reads a sequence table; numbers are accepted as text.
func checkStrings(L *lua.LState, n int) []string {
	t := L.CheckTable(n)
	out := make([]string, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		v := t.RawGetInt(i)
		switch v.Type() {
		case lua.LTString, lua.LTNumber:
			out = append(out, lua.LVAsString(v))
		default:
			L.ArgError(n, fmt.Sprintf("element %d is a %s, want string", i, v.Type()))
		}
	}
	return out
}

// optVector reads {x=, y=, z=}; missing keys are 0. nil table gives nil.
func optVector(t *lua.LTable) *action.Vector {
	if t == nil {
		return nil
	}
	return &action.Vector{
		X: float32(lua.LVAsNumber(t.RawGetString("x"))),
		Y: float32(lua.LVAsNumber(t.RawGetString("y"))),
		Z: float32(lua.LVAsNumber(t.RawGetString("z"))),
	}
}

func vectorValue(L *lua.LState, v component.Vec3) *lua.LTable {
	t := L.CreateTable(0, 3)
	t.RawSetString("x", lua.LNumber(v.X))
	t.RawSetString("y", lua.LNumber(v.Y))
	t.RawSetString("z", lua.LNumber(v.Z))
	return t
}
