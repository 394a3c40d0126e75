package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshCena/web-command-center/internal/domain/terminal"
)

func TestObserverCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.CommandStarted(terminal.KindProcess)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsRunning.WithLabelValues("process")))

	m.CommandFinished(terminal.KindProcess, terminal.StatusTerminated, 50*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CommandsRunning.WithLabelValues("process")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("process", "terminated")))

	m.Preempted(false)
	m.Preempted(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Preemptions.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Preemptions.WithLabelValues("true")))

	m.OutputLine(terminal.OriginStdout)
	m.OutputLine(terminal.OriginStdout)
	m.OutputLine(terminal.OriginStderr)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutputLines.WithLabelValues("stdout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutputLines.WithLabelValues("stderr")))

	m.DecodeFallback("iso-8859-1")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFallbacks.WithLabelValues("iso-8859-1")))

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.TotalCommands)
	assert.EqualValues(t, 2, snap.Preemptions)
}

func TestSessionAndConnectionGauges(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.IncWSConnections()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsTotal))

	m.DecWSConnections()
	snap := m.Snapshot()
	assert.EqualValues(t, 0, snap.ActiveConnections)
	assert.EqualValues(t, 1, snap.ActiveSessions)
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.EqualValues(t, 3, snap.TotalRequests)
	assert.EqualValues(t, 1, snap.TotalErrors)
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.SessionOpened()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, "command_center_sessions_active 1"))
	assert.Contains(t, text, "command_center_uptime_seconds")
}

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
