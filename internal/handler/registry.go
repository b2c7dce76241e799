package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
)

// HandlerFunc applies one action against the scene and produces its response.
type HandlerFunc func(act action.Action, deps *Deps) action.Response

// Registry maps action kinds to handlers.
type Registry struct {
	handlers map[action.Kind]HandlerFunc
	deps     *Deps
	log      *zap.Logger
}

func NewRegistry(deps *Deps) *Registry {
	return &Registry{
		handlers: make(map[action.Kind]HandlerFunc),
		deps:     deps,
		log:      deps.Log,
	}
}

// Register maps a kind to a handler, replacing any previous one.
func (reg *Registry) Register(kind action.Kind, fn HandlerFunc) {
	reg.handlers[kind] = fn
}

// on registers a handler typed on its concrete action.
func on[A action.Action](reg *Registry, fn func(act A, deps *Deps) action.Response) {
	var zero A
	reg.Register(zero.Kind(), func(act action.Action, deps *Deps) action.Response {
		return fn(act.(A), deps)
	})
}

// Has reports whether kind has a handler.
func (reg *Registry) Has(kind action.Kind) bool {
	_, ok := reg.handlers[kind]
	return ok
}

// Dispatch applies act and returns its response. Handler failures are
// returned as error responses; they never escape into the tick loop.
func (reg *Registry) Dispatch(act action.Action) action.Response {
	kind := act.Kind()
	fn, ok := reg.handlers[kind]
	if !ok {
		reg.log.Warn("no handler for action", zap.String("action", string(kind)))
		return action.Failure(fmt.Errorf("%w: no handler for %q", action.ErrProtocol, kind))
	}
	return reg.safeCall(fn, act)
}

// safeCall executes a handler with panic recovery so a single bad action
// cannot take the simulation down.
func (reg *Registry) safeCall(fn HandlerFunc, act action.Action) (resp action.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("action", string(act.Kind())),
				zap.Any("panic", rec),
			)
			resp = action.Failure(fmt.Errorf("handler panic for %s: %v", act.Kind(), rec))
		}
	}()
	return fn(act, reg.deps)
}
