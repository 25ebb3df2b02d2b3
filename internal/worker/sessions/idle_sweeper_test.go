package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/worker/sessions"
)

type MockEvictor struct {
	mock.Mock
}

func (m *MockEvictor) EvictIdle(now time.Time, maxIdle time.Duration) int {
	args := m.Called(now, maxIdle)
	return args.Int(0)
}

func TestIdleSweeper_EvictsOnTick(t *testing.T) {
	evictor := &MockEvictor{}
	called := make(chan struct{}, 1)
	evictor.On("EvictIdle", mock.AnythingOfType("time.Time"), 30*time.Minute).
		Run(func(mock.Arguments) {
			select {
			case called <- struct{}{}:
			default:
			}
		}).
		Return(1)

	w := sessions.NewIdleSweeper(evictor, 30*time.Minute, zap.NewNop())
	w.SetInterval(10 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("EvictIdle was not called")
	}

	require.NoError(t, w.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestIdleSweeper_ContextCancellation(t *testing.T) {
	w := sessions.NewIdleSweeper(&MockEvictor{}, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
	assert.Equal(t, sessions.IdleSweeperName, w.Name())
}
