// Package scripting runs Lua scene scripts against a live simulation.
//
// Scripts load the viz module and drive the scene one synchronous action at a
// time:
//
//	local viz = require("viz")
//	local arr = viz.create_array({"5", "3", "0"}, {x = 0, y = 200})
//	viz.insert(arr, 1, "7")
//	print(viz.pop(arr, 0))
//
// Indices are 0-based, as on the wire. Entity handles are plain numbers.
// Failed actions raise Lua errors, so scripts can recover with pcall.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
)

const APIVersion = 1

// Submitter sends one action and waits for its response.
type Submitter interface {
	Submit(ctx context.Context, act action.Action) (action.Response, error)
}

// Engine runs scripts, each in a fresh VM. A VM is only touched by the
// goroutine running its script; the simulation is reached through Submitter.
type Engine struct {
	sub Submitter
	log *zap.Logger
}

func NewEngine(sub Submitter, log *zap.Logger) *Engine {
	return &Engine{sub: sub, log: log}
}

// RunDir runs every .lua file in dir in name order. A missing dir is not an
// error. A failing script is logged and does not stop the others.
func (e *Engine) RunDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.RunFile(ctx, path); err != nil {
			e.log.Error("lua script failed", zap.String("file", path), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		e.log.Info(fmt.Sprintf("script finished: %s", path))
	}
	return errors.Join(errs...)
}

func (e *Engine) RunFile(ctx context.Context, path string) error {
	L := e.newState(ctx)
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	return nil
}

// RunString runs src under name.
func (e *Engine) RunString(ctx context.Context, name, src string) error {
	L := e.newState(ctx)
	defer L.Close()
	fn, err := L.LoadString(src)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

func (e *Engine) newState(ctx context.Context) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)
	L.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	L.PreloadModule("viz", e.loader)
	return L
}

func (e *Engine) loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), e.exports())
	L.Push(mod)
	return 1
}
