package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/config"
	"github.com/visuscript/liveviz/internal/net"
	"github.com/visuscript/liveviz/internal/world"
)

// fakeBridge answers synchronously, recording what it was given.
type fakeBridge struct {
	answer func(action.Action) (action.Response, error)
	raw    []byte
	done   chan struct{}
}

func (f *fakeBridge) SubmitTagged(_ context.Context, act action.Action, raw []byte) (action.Response, uuid.UUID, error) {
	f.raw = raw
	resp, err := f.answer(act)
	return resp, uuid.New(), err
}

func (f *fakeBridge) Done() <-chan struct{} { return f.done }

type fixedScene struct{ snap *world.Snapshot }

func (s fixedScene) Latest() *world.Snapshot { return s.snap }

func newServer(t *testing.T, auth *net.Authenticator, answer func(action.Action) (action.Response, error)) (*Server, *fakeBridge) {
	t.Helper()
	fb := &fakeBridge{answer: answer, done: make(chan struct{})}
	scene := fixedScene{&world.Snapshot{Tick: 9, Nodes: []world.Node{{Entity: 1, Kind: "array"}}}}
	return New(fb, scene, auth, zap.NewNop()), fb
}

func do(t *testing.T, s *Server, req *http.Request) (int, action.Response, http.Header) {
	t.Helper()
	res, err := s.App().Test(req, int((2 * time.Second).Milliseconds()))
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var resp action.Response
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	return res.StatusCode, resp, res.Header
}

func post(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/action", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPostAction(t *testing.T) {
	s, fb := newServer(t, nil, func(act action.Action) (action.Response, error) {
		assert.Equal(t, action.GetArrayContents{Array: 7}, act)
		return action.TextsResult([]string{"1", "2"}), nil
	})

	code, resp, header := do(t, s, post(`{"action":"GetArrayContents","array":7}`))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"1", "2"}, resp.Texts)
	_, err := uuid.Parse(header.Get(HeaderRequestID))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"action":"GetArrayContents","array":7}`, string(fb.raw))
}

func TestBadBodyNeverReachesBridge(t *testing.T) {
	called := false
	s, _ := newServer(t, nil, func(action.Action) (action.Response, error) {
		called = true
		return action.None(), nil
	})

	code, resp, _ := do(t, s, post(`{"action":"Nope"}`))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, action.KindProtocolError, resp.Err.Kind)
	assert.False(t, called)
}

func TestErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{action.ErrEntityNotFound, http.StatusNotFound},
		{action.ErrIndexOutOfRange, http.StatusUnprocessableEntity},
		{action.ErrInvalidArgument, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		s, _ := newServer(t, nil, func(action.Action) (action.Response, error) {
			return action.Failure(tc.err), nil
		})
		code, resp, _ := do(t, s, post(`{"action":"Clear"}`))
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.ErrorIs(t, resp.Error(), tc.err)
	}

	s, _ := newServer(t, nil, func(action.Action) (action.Response, error) {
		return action.Response{}, action.ErrChannelClosed
	})
	code, resp, _ := do(t, s, post(`{"action":"Clear"}`))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, action.KindChannelClosed, resp.Err.Kind)
}

func TestBearerToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("tok"), bcrypt.MinCost)
	require.NoError(t, err)
	auth, err := net.NewAuthenticator(config.AuthConfig{Enabled: true, TokenHash: string(hash)})
	require.NoError(t, err)
	s, _ := newServer(t, auth, func(action.Action) (action.Response, error) { return action.None(), nil })

	code, _, _ := do(t, s, post(`{"action":"Clear"}`))
	assert.Equal(t, http.StatusUnauthorized, code)

	req := post(`{"action":"Clear"}`)
	req.Header.Set("Authorization", "Bearer tok")
	code, resp, _ := do(t, s, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, action.None(), resp)
}

func TestHealthAndScene(t *testing.T) {
	s, fb := newServer(t, nil, nil)

	res, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	var health HealthReply
	require.NoError(t, json.NewDecoder(res.Body).Decode(&health))
	assert.Equal(t, HealthReply{IsServerRunning: true, IsSimulationRunning: true}, health)

	close(fb.done)
	res, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&health))
	assert.False(t, health.IsSimulationRunning)

	res, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/scene", nil))
	require.NoError(t, err)
	var snap world.Snapshot
	require.NoError(t, json.NewDecoder(res.Body).Decode(&snap))
	assert.Equal(t, uint64(9), snap.Tick)
	require.Len(t, snap.Nodes, 1)

	code, resp, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, action.KindProtocolError, resp.Err.Kind)
}
