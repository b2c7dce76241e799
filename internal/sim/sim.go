// Package sim wires the scene, the systems and the request bridge into one
// tick loop. Everything it owns is touched only by the goroutine that calls
// Tick or Run; other goroutines talk to it through the bridge.
package sim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/config"
	"github.com/visuscript/liveviz/internal/core/event"
	coresys "github.com/visuscript/liveviz/internal/core/system"
	"github.com/visuscript/liveviz/internal/handler"
	"github.com/visuscript/liveviz/internal/net"
	"github.com/visuscript/liveviz/internal/system"
	"github.com/visuscript/liveviz/internal/world"
)

type Simulation struct {
	World     *world.State
	Bus       *event.Bus
	Bridge    *net.Bridge
	Registry  *handler.Registry
	Runner    *coresys.Runner
	Snapshots *system.SnapshotSystem
	Journal   *system.JournalSystem // nil when the journal is disabled

	tickRate time.Duration
	log      *zap.Logger
}

// StyleOf converts layout settings into the style stamped on new arrays.
func StyleOf(l config.LayoutConfig) world.Style {
	return world.Style{
		CellWidth:         l.CellWidth,
		CellHeight:        l.CellHeight,
		FontSize:          l.FontSize,
		AlignmentDuration: l.AlignmentDuration,
	}
}

// New builds a simulation from cfg. journal may be nil.
func New(cfg *config.Config, journal system.JournalWriter, log *zap.Logger) *Simulation {
	ws := world.NewState(StyleOf(cfg.Layout))
	bus := event.NewBus()
	bridge := net.NewBridge(cfg.Server.InQueueSize, log)

	deps := &handler.Deps{World: ws, Layout: cfg.Layout, Log: log}
	reg := handler.NewRegistry(deps)
	handler.RegisterAll(reg)

	s := &Simulation{
		World:     ws,
		Bus:       bus,
		Bridge:    bridge,
		Registry:  reg,
		Runner:    coresys.NewRunner(),
		Snapshots: system.NewSnapshotSystem(ws, 1),
		tickRate:  cfg.Server.TickRate,
		log:       log,
	}

	// Phase 0: events from the previous tick
	s.Runner.Register(system.NewEventSystem(bus))
	// Phase 1: one action in, one response out
	s.Runner.Register(system.NewDispatchSystem(bridge, reg, bus, log))
	// Phase 2-5: layout, animation, retirement, backgrounds
	s.Runner.Register(system.NewLayoutSystem(ws))
	s.Runner.Register(system.NewInterpolationSystem(ws, log))
	s.Runner.Register(system.NewLifecycleSystem(ws, bus, log))
	s.Runner.Register(system.NewRedrawSystem(ws))
	// Phase 6: journal
	if journal != nil {
		s.Journal = system.NewJournalSystem(bus, journal, log, cfg.Journal.FlushInterval)
		s.Runner.Register(s.Journal)
	}
	// Phase 7-8: deferred destruction, snapshot
	s.Runner.Register(system.NewCleanupSystem(ws.ECS(), log))
	s.Runner.Register(s.Snapshots)
	return s
}

// Tick advances the simulation by dt.
func (s *Simulation) Tick(dt time.Duration) {
	s.Runner.Tick(dt)
}

// Run ticks at the configured rate until ctx is cancelled, then closes the
// bridge so every waiting caller is released.
func (s *Simulation) Run(ctx context.Context) {
	if s.Journal != nil {
		journalCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			s.Journal.Run(journalCtx)
			close(done)
		}()
		defer func() {
			s.Journal.Flush()
			cancel()
			<-done
		}()
	}
	defer s.Bridge.Close()

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("simulation stopped", zap.Uint64("ticks", s.Runner.Ticks()))
			return
		case now := <-ticker.C:
			s.Tick(now.Sub(last))
			last = now
		}
	}
}
