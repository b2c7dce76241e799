package net

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
)

// ErrNoListener is reported when a response is ready but its caller has
// already gone away.
var ErrNoListener = errors.New("no listener for response")

// Request is one action in flight between a transport worker and the
// simulation. It is owned by the simulation once received.
type Request struct {
	ID     uuid.UUID
	Action action.Action
	Raw    []byte // request JSON as received, or re-encoded for in-process callers

	ctx   context.Context
	reply chan action.Response
}

// Reply delivers the single response for r. It never blocks.
func (r *Request) Reply(resp action.Response) error {
	if r.ctx.Err() != nil {
		return ErrNoListener
	}
	select {
	case r.reply <- resp:
		return nil
	default:
		return errors.New("request already answered")
	}
}

// Bridge carries requests from any number of transport workers to the
// simulation goroutine. Each request brings its own reply channel, so
// responses are always paired with the caller that asked.
type Bridge struct {
	in        chan *Request
	closeCh   chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

func NewBridge(queueSize int, log *zap.Logger) *Bridge {
	return &Bridge{
		in:      make(chan *Request, queueSize),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Submit sends act and blocks until the simulation answers. The wait has no
// timeout of its own; it ends with the response, with ctx, or with Close.
// When the queue (server.in_queue_size) is full, Submit also blocks before
// enqueueing until a slot frees up; ctx and Close end that wait as well, and
// the action is then never applied.
func (b *Bridge) Submit(ctx context.Context, act action.Action) (action.Response, error) {
	act = action.Normalize(act)
	raw, err := action.Encode(act)
	if err != nil {
		return action.Response{}, err
	}
	return b.SubmitRaw(ctx, act, raw)
}

// SubmitRaw is Submit for an action decoded from raw at the transport.
func (b *Bridge) SubmitRaw(ctx context.Context, act action.Action, raw []byte) (action.Response, error) {
	resp, _, err := b.submit(ctx, act, raw)
	return resp, err
}

// SubmitTagged is SubmitRaw that also reports the request id.
func (b *Bridge) SubmitTagged(ctx context.Context, act action.Action, raw []byte) (action.Response, uuid.UUID, error) {
	return b.submit(ctx, act, raw)
}

func (b *Bridge) submit(ctx context.Context, act action.Action, raw []byte) (action.Response, uuid.UUID, error) {
	req := &Request{
		ID:     uuid.New(),
		Action: act,
		Raw:    raw,
		ctx:    ctx,
		reply:  make(chan action.Response, 1),
	}
	select {
	case <-b.closeCh:
		return action.Response{}, req.ID, action.ErrChannelClosed
	default:
	}

	select {
	case b.in <- req:
	case <-b.closeCh:
		return action.Response{}, req.ID, action.ErrChannelClosed
	case <-ctx.Done():
		return action.Response{}, req.ID, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp, req.ID, nil
	case <-b.closeCh:
		// an answer may have raced the shutdown
		select {
		case resp := <-req.reply:
			return resp, req.ID, nil
		default:
		}
		return action.Response{}, req.ID, action.ErrChannelClosed
	case <-ctx.Done():
		return action.Response{}, req.ID, ctx.Err()
	}
}

// Poll takes the next pending request without blocking.
func (b *Bridge) Poll() (*Request, bool) {
	select {
	case req := <-b.in:
		return req, true
	default:
		return nil, false
	}
}

// Pending reports how many requests are queued.
func (b *Bridge) Pending() int {
	return len(b.in)
}

// Close wakes every waiting caller with ErrChannelClosed and discards the
// requests still queued.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.closeCh)
		dropped := 0
		for {
			if _, ok := b.Poll(); !ok {
				break
			}
			dropped++
		}
		if dropped > 0 {
			b.log.Warn("bridge closed with requests pending", zap.Int("dropped", dropped))
		}
	})
}

// Done is closed once the bridge has shut down.
func (b *Bridge) Done() <-chan struct{} {
	return b.closeCh
}
