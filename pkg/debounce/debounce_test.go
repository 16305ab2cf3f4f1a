package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain counts signals received until quiet for the given duration.
func drain(d *Debouncer, quiet time.Duration) int {
	count := 0
	for {
		select {
		case <-d.Signals():
			count++
		case <-time.After(quiet):
			return count
		}
	}
}

func TestBurstYieldsOneSignal(t *testing.T) {
	d := New(50 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-d.Signals():
	case <-time.After(time.Second):
		t.Fatal("no signal after burst")
	}

	// The burst must not have queued a second signal.
	assert.Equal(t, 0, drain(d, 150*time.Millisecond))
}

func TestSpacedTriggersYieldOneSignalEach(t *testing.T) {
	d := New(20 * time.Millisecond)
	defer d.Stop()

	const n = 3
	for i := 0; i < n; i++ {
		d.Trigger()
		// Wait well past the window so each trigger is its own burst.
		time.Sleep(80 * time.Millisecond)
	}

	assert.Equal(t, n, drain(d, 200*time.Millisecond))
}

func TestTriggerResetsWindow(t *testing.T) {
	d := New(60 * time.Millisecond)
	defer d.Stop()

	start := time.Now()
	d.Trigger()
	time.Sleep(30 * time.Millisecond)
	d.Trigger() // resets; signal due ~60ms from now

	select {
	case <-d.Signals():
		elapsed := time.Since(start)
		// The first trigger alone would have fired at ~60ms; the reset
		// pushes it to ~90ms.
		require.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("no signal")
	}
}

func TestTrailingBurstAlwaysSignals(t *testing.T) {
	d := New(10 * time.Millisecond)
	defer d.Stop()

	d.Trigger()

	select {
	case <-d.Signals():
	case <-time.After(time.Second):
		t.Fatal("trailing burst never signalled")
	}
}

func TestStopSuppressesPendingSignal(t *testing.T) {
	d := New(30 * time.Millisecond)

	d.Trigger()
	d.Stop()

	assert.Equal(t, 0, drain(d, 100*time.Millisecond))

	// Triggers after Stop are ignored.
	d.Trigger()
	assert.Equal(t, 0, drain(d, 100*time.Millisecond))
}

func TestZeroWindowUsesDefault(t *testing.T) {
	d := New(0)
	defer d.Stop()

	require.Equal(t, DefaultWindow, d.Window())
}
