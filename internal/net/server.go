package net

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/config"
)

// Server accepts TCP connections and serves each on its own Session.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	bridge   *Bridge
	auth     *Authenticator
	cfg      config.NetworkConfig
	log      *zap.Logger
	closeCh  chan struct{}

	mu       sync.Mutex
	sessions map[uint64]*Session
	wg       sync.WaitGroup
}

func NewServer(cfg config.NetworkConfig, bridge *Bridge, auth *Authenticator, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.TCPBindAddress)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		bridge:   bridge,
		auth:     auth,
		cfg:      cfg,
		log:      log,
		closeCh:  make(chan struct{}),
		sessions: make(map[uint64]*Session),
	}, nil
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.bridge, s.auth, s.cfg, s.log)
		s.log.Info(fmt.Sprintf("client connected  session=%d  ip=%s", id, sess.IP))

		s.mu.Lock()
		s.sessions[id] = sess
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.Serve(ctx)
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
			s.log.Info(fmt.Sprintf("client disconnected  session=%d", id))
		}()
	}
}

// Count returns the number of live sessions.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops accepting, closes every session and waits for them.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
