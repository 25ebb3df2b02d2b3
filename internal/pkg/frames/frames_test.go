package frames

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestManualScheduler_RunsOncePerRequest(t *testing.T) {
	s := NewManualScheduler(time.Unix(0, 0))

	calls := 0
	s.RequestFrame(func(time.Time) { calls++ })

	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 1, s.Step(16*time.Millisecond))
	assert.Equal(t, 0, s.Step(16*time.Millisecond))
	assert.Equal(t, 1, calls)
}

func TestManualScheduler_RequestDuringFrameGoesToNextFrame(t *testing.T) {
	s := NewManualScheduler(time.Unix(0, 0))

	var seen []time.Time
	var tick Callback
	tick = func(now time.Time) {
		seen = append(seen, now)
		s.RequestFrame(tick)
	}
	s.RequestFrame(tick)

	s.Step(10 * time.Millisecond)
	s.Step(10 * time.Millisecond)

	assert.Equal(t, []time.Time{time.Unix(0, 0).Add(10 * time.Millisecond), time.Unix(0, 0).Add(20 * time.Millisecond)}, seen)
	assert.Equal(t, 1, s.Pending())
}

func TestManualScheduler_Cancel(t *testing.T) {
	s := NewManualScheduler(time.Unix(0, 0))

	called := false
	id := s.RequestFrame(func(time.Time) { called = true })
	s.CancelFrame(id)
	s.CancelFrame(id)

	s.Step(time.Millisecond)
	assert.False(t, called)
}

func TestTickerScheduler_RunsCallbacks(t *testing.T) {
	s := NewTickerScheduler(time.Millisecond, zap.NewNop())
	s.Start()
	defer s.Stop()

	var calls atomic.Int32
	s.RequestFrame(func(time.Time) { calls.Add(1) })
	s.RequestFrame(func(time.Time) { panic("boom") })

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
}

func TestTickerScheduler_StopWithoutStart(t *testing.T) {
	s := NewTickerScheduler(0, zap.NewNop())
	assert.NotPanics(t, s.Stop)
	assert.NotPanics(t, s.Stop)
}
