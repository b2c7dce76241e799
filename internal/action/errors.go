package action

import (
	"errors"

	"github.com/visuscript/liveviz/internal/world"
)

var (
	// ErrProtocol marks a malformed or unparseable request. It is raised at
	// the transport boundary and never reaches the dispatcher.
	ErrProtocol = errors.New("protocol error")
	// ErrChannelClosed is returned to a caller whose counterpart has shut down.
	ErrChannelClosed = errors.New("channel closed")

	ErrInvalidArgument = world.ErrInvalidArgument
	ErrIndexOutOfRange = world.ErrIndexOutOfRange
	ErrEntityNotFound  = world.ErrEntityNotFound
)

// ErrorKind is the wire name of an error class.
type ErrorKind string

const (
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindIndexOutOfRange ErrorKind = "index_out_of_range"
	KindEntityNotFound  ErrorKind = "entity_not_found"
	KindProtocolError   ErrorKind = "protocol_error"
	KindChannelClosed   ErrorKind = "channel_closed"
	KindInternal        ErrorKind = "internal"
)

var kindErrors = map[ErrorKind]error{
	KindInvalidArgument: ErrInvalidArgument,
	KindIndexOutOfRange: ErrIndexOutOfRange,
	KindEntityNotFound:  ErrEntityNotFound,
	KindProtocolError:   ErrProtocol,
	KindChannelClosed:   ErrChannelClosed,
}

// KindOf classifies err. Unrecognized errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrIndexOutOfRange):
		return KindIndexOutOfRange
	case errors.Is(err, ErrEntityNotFound):
		return KindEntityNotFound
	case errors.Is(err, ErrProtocol):
		return KindProtocolError
	case errors.Is(err, ErrChannelClosed):
		return KindChannelClosed
	default:
		return KindInternal
	}
}

// Error is the wire form of a failed action.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Unwrap lets errors.Is match a decoded Error against the sentinels.
func (e *Error) Unwrap() error {
	return kindErrors[e.Kind]
}
