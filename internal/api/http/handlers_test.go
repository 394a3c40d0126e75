package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshCena/web-command-center/internal/domain/terminal"
	"github.com/AshCena/web-command-center/internal/infrastructure/monitoring"
	"github.com/AshCena/web-command-center/internal/shared/id"
)

type fakeSessions []terminal.Info

func (f fakeSessions) Sessions() []terminal.Info { return f }
func (f fakeSessions) Count() int                { return len(f) }

func (f fakeSessions) Session(sessionID id.SessionID) (terminal.Info, bool) {
	for _, info := range f {
		if info.ID == sessionID.String() {
			return info, true
		}
	}
	return terminal.Info{}, false
}

func setupRouter(sessions SessionLister) (*gin.Engine, *monitoring.Metrics) {
	gin.SetMode(gin.TestMode)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	h := NewHandlers(sessions, metrics)

	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/sessions", h.ListSessions)
	router.GET("/sessions/:id", h.GetSession)
	return router, metrics
}

func get(t *testing.T, router *gin.Engine, path string) map[string]any {
	t.Helper()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRoot(t *testing.T) {
	router, _ := setupRouter(fakeSessions(nil))

	body := get(t, router, "/")
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestHealth(t *testing.T) {
	router, metrics := setupRouter(fakeSessions{{ID: "sess_a"}, {ID: "sess_b"}})
	metrics.SessionOpened()
	metrics.Preempted(false)

	body := get(t, router, "/health")
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, 2.0, body["sessions"])

	snapshot, ok := body["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, snapshot["active_sessions"])
	assert.Equal(t, 1.0, snapshot["preemptions"])
}

func TestListSessions(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	router, _ := setupRouter(fakeSessions{
		{ID: "sess_a", WorkingDir: "/srv", StartedAt: started},
		{ID: "sess_b", WorkingDir: "/tmp", Busy: true, Command: "make", PID: 42, StartedAt: started},
	})

	body := get(t, router, "/sessions")
	assert.Equal(t, 2.0, body["count"])

	sessions, ok := body["sessions"].([]any)
	require.True(t, ok)
	require.Len(t, sessions, 2)

	idle := sessions[0].(map[string]any)
	assert.Equal(t, "sess_a", idle["id"])
	assert.Equal(t, "/srv", idle["working_dir"])
	assert.Equal(t, false, idle["busy"])
	assert.NotContains(t, idle, "command")
	assert.Equal(t, "2024-01-02T03:04:05Z", idle["started_at"])

	busy := sessions[1].(map[string]any)
	assert.Equal(t, "make", busy["command"])
	assert.Equal(t, 42.0, busy["pid"])
}

func TestListSessionsEmpty(t *testing.T) {
	router, _ := setupRouter(fakeSessions(nil))

	body := get(t, router, "/sessions")
	assert.Equal(t, 0.0, body["count"])
	assert.Equal(t, []any{}, body["sessions"])
}

func TestGetSession(t *testing.T) {
	known := id.NewSessionID()
	router, _ := setupRouter(fakeSessions{{ID: known.String(), WorkingDir: "/srv"}})

	tests := []struct {
		name string
		path string
		code int
	}{
		{"live session", "/sessions/" + known.String(), http.StatusOK},
		{"unknown session", "/sessions/" + id.NewSessionID().String(), http.StatusNotFound},
		{"malformed id", "/sessions/sess_nope", http.StatusBadRequest},
		{"wrong prefix", "/sessions/cmd_" + strings.TrimPrefix(known.String(), "sess_"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
		})
	}

	body := get(t, router, "/sessions/"+known.String())
	assert.Equal(t, known.String(), body["id"])
	assert.Equal(t, "/srv", body["working_dir"])
}
