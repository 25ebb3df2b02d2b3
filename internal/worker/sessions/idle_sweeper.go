package sessions

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/venue-map-service/internal/worker"
)

const IdleSweeperName = "sessions-idle-sweeper"

// Evictor закрывает сессии без активности
type Evictor interface {
	EvictIdle(now time.Time, maxIdle time.Duration) int
}

// IdleSweeper периодически закрывает заброшенные карты
type IdleSweeper struct {
	*worker.BaseWorker
	sessions Evictor
	maxIdle  time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewIdleSweeper(sessions Evictor, maxIdle time.Duration, logger *zap.Logger) *IdleSweeper {
	interval := maxIdle / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &IdleSweeper{
		BaseWorker: worker.NewBaseWorker(IdleSweeperName, "", logger),
		sessions:   sessions,
		maxIdle:    maxIdle,
		interval:   interval,
		now:        time.Now,
	}
}

// SetInterval меняет период проверки
func (w *IdleSweeper) SetInterval(d time.Duration) {
	if d > 0 {
		w.interval = d
	}
}

func (w *IdleSweeper) Start(ctx context.Context) error {
	w.Logger().Info("Starting idle session sweeper",
		zap.Duration("max_idle", w.maxIdle),
		zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.StopChan():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := w.sessions.EvictIdle(w.now(), w.maxIdle); n > 0 {
				w.Logger().Info("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
