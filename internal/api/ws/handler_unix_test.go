//go:build unix

package ws

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectTerminatesProcess(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t)

	execute(t, conn, "echo $$; exec sleep 30")
	resp := readResponse(t, conn)
	pid, err := strconv.Atoi(strings.TrimSpace(resp.Output))
	require.NoError(t, err)
	require.NoError(t, syscall.Kill(pid, 0))

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return errors.Is(syscall.Kill(pid, 0), syscall.ESRCH)
	}, 10*time.Second, 50*time.Millisecond)
}

func TestShutdownClosesSessionsConcurrently(t *testing.T) {
	srv := newTestServer(t)

	// each ignores SIGTERM and holds Close for the whole preempt timeout
	for i := 0; i < 3; i++ {
		conn := srv.dial(t)
		execute(t, conn, "trap '' TERM; echo ready; while true; do sleep 0.1; done")
		resp := readResponse(t, conn)
		require.Equal(t, "ready\n", resp.Output)
	}

	// shorter than the closes would take one after another
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, srv.handler.Shutdown(ctx))
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Zero(t, srv.handler.Count())
}
