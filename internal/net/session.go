package net

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/config"
)

// Session is one TCP client. It serves a single request at a time: read a
// frame, submit it, wait for the answer, write it back. All scene state is
// reached through the bridge.
type Session struct {
	ID   uint64
	conn net.Conn
	IP   string

	bridge *Bridge
	auth   *Authenticator
	cfg    config.NetworkConfig

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second action rate limiter (serve goroutine only, no lock needed)
	actPerSec  int   // max actions/sec (0 = unlimited)
	actCount   int   // actions received this second
	actResetAt int64 // unix second of last counter reset

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, bridge *Bridge, auth *Authenticator, cfg config.NetworkConfig, log *zap.Logger) *Session {
	return &Session{
		ID:        id,
		conn:      conn,
		IP:        conn.RemoteAddr().String(),
		bridge:    bridge,
		auth:      auth,
		cfg:       cfg,
		closeCh:   make(chan struct{}),
		actPerSec: cfg.ActionsPerSecond,
		log:       log.With(zap.Uint64("session", id)),
	}
}

// Close shuts the connection down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Serve runs the request loop until the client hangs up, ctx ends or the
// bridge closes.
func (s *Session) Serve(ctx context.Context) {
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.closeCh:
			cancel()
		case <-ctx.Done():
			s.Close()
		}
	}()

	if s.auth.Enabled() && !s.authenticate() {
		return
	}

	for {
		if s.cfg.ReadTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if !s.allow() {
			s.log.Warn("action rate exceeded, disconnecting", zap.Int("aps", s.actCount))
			return
		}

		act, err := action.Decode(payload)
		if err != nil {
			s.log.Debug("bad request", zap.Error(err))
			if !s.write(action.Failure(err)) {
				return
			}
			continue
		}

		resp, id, err := s.bridge.SubmitTagged(ctx, act, payload)
		switch {
		case errors.Is(err, action.ErrChannelClosed):
			s.write(action.Failure(err))
			return
		case err != nil:
			return
		}
		s.log.Debug("action served",
			zap.String("request", id.String()),
			zap.String("action", string(act.Kind())),
			zap.String("result", string(resp.Result)),
		)
		if !s.write(resp) {
			return
		}
	}
}

// authenticate reads the token frame that must open an authenticated
// session and acknowledges it.
func (s *Session) authenticate() bool {
	if s.cfg.ReadTimeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
	token, err := ReadFrame(s.conn)
	if err != nil {
		return false
	}
	if err := s.auth.Check(string(token)); err != nil {
		s.log.Warn("authentication failed", zap.String("ip", s.IP))
		s.write(action.Failure(err))
		return false
	}
	return s.write(action.None())
}

func (s *Session) allow() bool {
	if s.actPerSec <= 0 {
		return true
	}
	now := time.Now().Unix()
	if now != s.actResetAt {
		s.actCount = 0
		s.actResetAt = now
	}
	s.actCount++
	return s.actCount <= s.actPerSec
}

func (s *Session) write(resp action.Response) bool {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("encode response", zap.Error(err))
		return false
	}
	if s.cfg.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := WriteFrame(s.conn, data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}
