//go:build unix

package shutdown

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListenForSignalsRequestsShutdown(t *testing.T) {
	c := NewCoordinator()
	stop := ListenForSignals(c, syscall.SIGUSR1)
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	require.Eventually(t, c.ShutdownRequested, time.Second, time.Millisecond)
	stop()
	stop()
}
