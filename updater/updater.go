// Package updater reruns the build periodically.
package updater

import (
	"context"
	"log"
	"time"

	"github.com/itsrody/Brave/engine"
)

// Logger is the minimal logging surface the updater needs.
type Logger interface {
	Printf(format string, v ...any)
}

const minInterval = 15 * time.Minute

// Updater manages periodic rebuilds of the output list.
type Updater struct {
	interval time.Duration
	engine   *engine.Engine
	onRun    func(*engine.RunStats)
	logger   Logger
	stop     chan struct{}
}

// New creates an Updater. onRun, when non-nil, receives the stats of every
// successful rebuild. Intervals below the minimum are rounded up.
func New(interval time.Duration, eng *engine.Engine, onRun func(*engine.RunStats), logger Logger) *Updater {
	if logger == nil {
		logger = log.Default()
	}
	if interval < minInterval {
		interval = minInterval
	}
	return &Updater{
		interval: interval,
		engine:   eng,
		onRun:    onRun,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start launches the rebuild loop in a goroutine.
func (u *Updater) Start() {
	u.logger.Printf("updater started, next rebuild in %v", u.interval)
	go func() {
		for {
			select {
			case <-time.After(u.interval):
				stats, err := u.engine.Run(context.Background())
				if err != nil {
					u.logger.Printf("updater: rebuild failed: %v", err)
					continue
				}
				if u.onRun != nil {
					u.onRun(stats)
				}
				u.logger.Printf("updater: rebuild complete, next in %v", u.interval)
			case <-u.stop:
				return
			}
		}
	}()
}

func (u *Updater) Stop() {
	close(u.stop)
}
