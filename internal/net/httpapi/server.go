// Package httpapi serves actions over HTTP: one JSON action per POST, one
// JSON response back.
package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/net"
	"github.com/visuscript/liveviz/internal/world"
)

const HeaderRequestID = "X-Request-Id"

// Submitter is the caller side of the bridge.
type Submitter interface {
	SubmitTagged(ctx context.Context, act action.Action, raw []byte) (action.Response, uuid.UUID, error)
	Done() <-chan struct{}
}

// SceneSource publishes scene snapshots.
type SceneSource interface {
	Latest() *world.Snapshot
}

type Server struct {
	app    *fiber.App
	bridge Submitter
	scene  SceneSource
	auth   *net.Authenticator
	log    *zap.Logger
}

type HealthReply struct {
	IsServerRunning     bool `json:"isServerRunning"`
	IsSimulationRunning bool `json:"isSimulationRunning"`
}

func New(bridge Submitter, scene SceneSource, auth *net.Authenticator, log *zap.Logger) *Server {
	s := &Server{bridge: bridge, scene: scene, auth: auth, log: log}
	s.app = fiber.New(fiber.Config{
		AppName:               "liveviz",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          errorHandler,
	})

	s.app.Get("/healthz", s.health)
	s.app.Post("/action", s.requireToken, s.submit)
	s.app.Get("/scene", s.requireToken, s.sceneSnapshot)
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) health(c *fiber.Ctx) error {
	running := true
	select {
	case <-s.bridge.Done():
		running = false
	default:
	}
	return c.JSON(HealthReply{IsServerRunning: true, IsSimulationRunning: running})
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	if !s.auth.Enabled() {
		return c.Next()
	}
	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if err := s.auth.Check(strings.TrimSpace(token)); !ok || err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(action.Failure(net.ErrUnauthorized))
	}
	return c.Next()
}

func (s *Server) submit(c *fiber.Ctx) error {
	// the body buffer is reused after the handler returns; the journal keeps raw
	raw := append([]byte(nil), c.Body()...)
	act, err := action.Decode(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(action.Failure(err))
	}

	resp, id, err := s.bridge.SubmitTagged(c.UserContext(), act, raw)
	c.Set(HeaderRequestID, id.String())
	if err != nil {
		resp = action.Failure(err)
	}
	s.log.Debug("http action",
		zap.String("request", id.String()),
		zap.String("action", string(act.Kind())),
		zap.String("result", string(resp.Result)),
	)
	return c.Status(StatusOf(resp)).JSON(resp)
}

func (s *Server) sceneSnapshot(c *fiber.Ctx) error {
	return c.JSON(s.scene.Latest())
}

// StatusOf maps a response to its HTTP status.
func StatusOf(resp action.Response) int {
	if resp.Result != action.ResultError || resp.Err == nil {
		return fiber.StatusOK
	}
	switch resp.Err.Kind {
	case action.KindProtocolError:
		return fiber.StatusBadRequest
	case action.KindEntityNotFound:
		return fiber.StatusNotFound
	case action.KindIndexOutOfRange, action.KindInvalidArgument:
		return fiber.StatusUnprocessableEntity
	case action.KindChannelClosed:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	kind := action.KindInternal

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		if code < fiber.StatusInternalServerError {
			kind = action.KindProtocolError
		}
	}
	return c.Status(code).JSON(action.Response{
		Result: action.ResultError,
		Err:    &action.Error{Kind: kind, Message: err.Error()},
	})
}
