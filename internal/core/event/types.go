package event

import (
	"github.com/google/uuid"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

// ActionApplied is emitted by the dispatcher after every drained action.
type ActionApplied struct {
	RequestID uuid.UUID
	Kind      string
	Raw       []byte
	Result    string // response result tag, "error" on failure
	ErrorKind string
	Tick      uint64
}

// EntityRetired is emitted when a lifecycle timer or touch check queues an
// entity for destruction.
type EntityRetired struct {
	Entity ecs.EntityID
	Reason string // "touch" or "timer"
}
