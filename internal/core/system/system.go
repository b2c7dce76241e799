package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents  Phase = iota // 0: deliver last tick's events
	PhaseInput                // 1: drain one action, reply
	PhaseLayout               // 2: re-target cells of changed arrays
	PhaseAnimate              // 3: advance target transforms/entities
	PhaseRetire               // 4: despawn timers and touch checks
	PhaseRedraw               // 5: rebuild array backgrounds
	PhasePersist              // 6: journal flush
	PhaseCleanup              // 7: destroy queued entities
	PhaseOutput               // 8: publish scene snapshot
)

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
