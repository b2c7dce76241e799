package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/core/event"
	coresys "github.com/visuscript/liveviz/internal/core/system"
	"github.com/visuscript/liveviz/internal/handler"
	"github.com/visuscript/liveviz/internal/net"
)

// RequestSource is the inbound side of the bridge.
type RequestSource interface {
	Poll() (*net.Request, bool)
}

// DispatchSystem drains at most one request per tick, applies it through the
// handler registry and replies. Phase 1 (Input).
type DispatchSystem struct {
	source   RequestSource
	registry *handler.Registry
	bus      *event.Bus
	log      *zap.Logger
	tick     uint64
}

func NewDispatchSystem(source RequestSource, registry *handler.Registry, bus *event.Bus, log *zap.Logger) *DispatchSystem {
	return &DispatchSystem{
		source:   source,
		registry: registry,
		bus:      bus,
		log:      log,
	}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.tick++
	req, ok := s.source.Poll()
	if !ok {
		return
	}
	kind := req.Action.Kind()
	resp := s.registry.Dispatch(req.Action)

	if err := req.Reply(resp); err != nil {
		s.log.Warn("response dropped",
			zap.String("request", req.ID.String()),
			zap.String("action", string(kind)),
			zap.Error(err),
		)
	}

	applied := event.ActionApplied{
		RequestID: req.ID,
		Kind:      string(kind),
		Raw:       req.Raw,
		Result:    string(resp.Result),
		Tick:      s.tick,
	}
	if resp.Result == action.ResultError {
		applied.ErrorKind = string(resp.Err.Kind)
		s.log.Debug("action failed",
			zap.String("request", req.ID.String()),
			zap.String("action", string(kind)),
			zap.String("kind", applied.ErrorKind),
			zap.String("message", resp.Err.Message),
		)
	} else {
		s.log.Debug("action applied",
			zap.String("request", req.ID.String()),
			zap.String("action", string(kind)),
			zap.String("result", applied.Result),
		)
	}
	event.Emit(s.bus, applied)
}
