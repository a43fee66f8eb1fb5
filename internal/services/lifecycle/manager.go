// Package lifecycle drains the service in dependency order on shutdown: the
// HTTP listener goes first so no request can observe a closing store, then
// the background jobs (monitor, exporter), then the stores themselves.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// CloseFunc releases one subsystem. The context it receives is bounded by
// the configured drain window.
type CloseFunc func(ctx context.Context) error

type subsystem struct {
	name  string
	close CloseFunc
}

// Drainer collects subsystems as they come up and releases them in reverse
// registration order, so dependents always close before their dependencies.
type Drainer struct {
	window time.Duration
	logger *zap.Logger

	mu         sync.Mutex
	subsystems []subsystem
	drained    bool
}

func New(window time.Duration, logger *zap.Logger) *Drainer {
	if window <= 0 {
		window = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Drainer{
		window: window,
		logger: logger,
	}
}

// Defer registers a subsystem for release during Drain. Registration order
// should follow startup order.
func (d *Drainer) Defer(name string, close CloseFunc) {
	if close == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subsystems = append(d.subsystems, subsystem{name: name, close: close})
}

// OnSignal invokes stop once SIGINT or SIGTERM arrives. A second signal
// aborts the process without draining, for operators who mean it.
func (d *Drainer) OnSignal(stop context.CancelFunc) {
	if stop == nil {
		return
	}
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		d.logger.Info("draining on signal", zap.String("signal", sig.String()))
		stop()

		<-sigCh
		d.logger.Warn("second signal, aborting")
		os.Exit(1)
	}()
}

// Drain releases every registered subsystem in reverse order, all within one
// drain window. Every release is attempted even after a failure; the
// failures come back aggregated. Draining twice is a no-op.
func (d *Drainer) Drain(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, d.window)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drained {
		return nil
	}
	d.drained = true

	var result *multierror.Error
	for i := len(d.subsystems) - 1; i >= 0; i-- {
		sub := d.subsystems[i]
		started := time.Now()
		if err := sub.close(ctx); err != nil {
			d.logger.Error("subsystem failed to drain",
				zap.String("subsystem", sub.name),
				zap.Error(err),
			)
			result = multierror.Append(result, err)
			continue
		}
		d.logger.Info("subsystem drained",
			zap.String("subsystem", sub.name),
			zap.Duration("took", time.Since(started)),
		)
	}
	return result.ErrorOrNil()
}
