package coach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/Garsondee/Duel-Sense/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testCoachConfig(endpoint string) config.CoachConfig {
	return config.CoachConfig{
		Enabled:    true,
		Endpoint:   endpoint,
		Player:     "alice",
		Timeout:    2 * time.Second,
		RateLimit:  1000,
		MaxRetries: 3,
	}
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(config.CoachConfig{}, nil)
	require.Error(t, err)
}

func TestClient_Ask(t *testing.T) {
	var got Instruction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(Reply{State: "keep your guard up"})
	}))
	defer srv.Close()

	c, err := NewClient(testCoachConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	reply, err := c.Ask(context.Background(), "  jab more  ")
	require.NoError(t, err)
	assert.Equal(t, "keep your guard up", reply)
	assert.Equal(t, Instruction{Name: "alice", Msg: "jab more"}, got)
}

func TestClient_Ask_RejectsEmpty(t *testing.T) {
	c, err := NewClient(testCoachConfig("http://127.0.0.1:1"), nil)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Ask(context.Background(), "   ")
	require.Error(t, err)
}

func TestClient_Ask_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(Reply{State: "ok"})
	}))
	defer srv.Close()

	c, err := NewClient(testCoachConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	reply, err := c.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Ask_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(testCoachConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Ask(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Submit_DeliversToInbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Reply{State: "circle left"})
	}))
	defer srv.Close()

	c, err := NewClient(testCoachConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	c.Submit("what now?")
	select {
	case m := <-c.Inbox():
		require.NoError(t, m.Err)
		assert.Equal(t, "coach", m.From)
		assert.Equal(t, "circle left", m.Text)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestClient_Submit_ReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewClient(testCoachConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	c.Submit("hello")
	select {
	case m := <-c.Inbox():
		assert.Error(t, m.Err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for failure")
	}
}

func TestClient_CloseCancelsInFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(testCoachConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	c.Submit("slow")
	time.Sleep(50 * time.Millisecond)
	c.Close()

	_, err = c.Ask(context.Background(), "after close")
	assert.ErrorIs(t, err, ErrClosed)
}
