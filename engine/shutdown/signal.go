package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Carmen-Shannon/oxy-harness/engine/logging"
)

// DefaultSignals are the signals that request a graceful stop: Ctrl+C and the conventional
// SIGTERM sent by process managers.
var DefaultSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// ListenForSignals forwards each delivered signal to c.RequestShutdown.
//
// The Go runtime receives the signal asynchronously and hands it to a channel; the listener
// goroutine only performs the lock-free RequestShutdown.
//
// Parameters:
//   - c: the coordinator to notify
//   - signals: the signals to listen for; DefaultSignals when empty
//
// Returns:
//   - func(): stops listening and restores default signal behavior
func ListenForSignals(c Coordinator, signals ...os.Signal) func() {
	if len(signals) == 0 {
		signals = DefaultSignals
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)

	quit := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				logging.Logger().Info("shutdown requested by signal", "signal", sig.String())
				c.RequestShutdown()
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}
}
