package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/core/event"
	coresys "github.com/visuscript/liveviz/internal/core/system"
	"github.com/visuscript/liveviz/internal/persist"
)

// JournalWriter stores batches of applied actions.
type JournalWriter interface {
	Append(ctx context.Context, entries []persist.JournalEntry) error
}

// JournalSystem collects ActionApplied events and hands them to a writer
// goroutine every interval ticks, so a slow database never stalls the tick.
// Phase 6 (Persist).
type JournalSystem struct {
	pending   []persist.JournalEntry
	batches   chan []persist.JournalEntry
	writer    JournalWriter
	log       *zap.Logger
	tickCount int
	interval  int // flush every N ticks
}

func NewJournalSystem(bus *event.Bus, writer JournalWriter, log *zap.Logger, intervalTicks int) *JournalSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	s := &JournalSystem{
		batches:  make(chan []persist.JournalEntry, 16),
		writer:   writer,
		log:      log,
		interval: intervalTicks,
	}
	event.Subscribe(bus, s.record)
	return s
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) record(ev event.ActionApplied) {
	s.pending = append(s.pending, persist.JournalEntry{
		RequestID: ev.RequestID,
		Tick:      ev.Tick,
		Kind:      ev.Kind,
		Raw:       ev.Raw,
		Result:    ev.Result,
		ErrorKind: ev.ErrorKind,
		AppliedAt: time.Now(),
	})
}

func (s *JournalSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush queues everything recorded so far for the writer goroutine. A full
// queue drops the batch rather than blocking the simulation.
func (s *JournalSystem) Flush() {
	if len(s.pending) == 0 {
		return
	}
	batch := s.pending
	s.pending = nil
	select {
	case s.batches <- batch:
	default:
		s.log.Warn("journal queue full, batch dropped", zap.Int("entries", len(batch)))
	}
}

// Run writes queued batches until ctx is cancelled, then drains what is left.
func (s *JournalSystem) Run(ctx context.Context) {
	for {
		select {
		case batch := <-s.batches:
			s.write(batch)
		case <-ctx.Done():
			for {
				select {
				case batch := <-s.batches:
					s.write(batch)
				default:
					return
				}
			}
		}
	}
}

func (s *JournalSystem) write(batch []persist.JournalEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.writer.Append(ctx, batch); err != nil {
		s.log.Error("journal write failed", zap.Int("entries", len(batch)), zap.Error(err))
		return
	}
	s.log.Debug("journal flushed", zap.Int("entries", len(batch)))
}
