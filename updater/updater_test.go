package updater

import (
	"io"
	"log"
	"testing"
	"time"
)

func TestNewEnforcesMinimumInterval(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	u := New(time.Second, nil, nil, logger)
	if u.interval != minInterval {
		t.Errorf("interval = %v, want clamped to %v", u.interval, minInterval)
	}
	u = New(time.Hour, nil, nil, logger)
	if u.interval != time.Hour {
		t.Errorf("interval = %v, want 1h", u.interval)
	}
}

func TestStopEndsLoop(t *testing.T) {
	u := New(time.Hour, nil, nil, log.New(io.Discard, "", 0))
	u.Start()
	// The first tick is an hour away; Stop must return promptly without a
	// rebuild ever running.
	done := make(chan struct{})
	go func() {
		u.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
