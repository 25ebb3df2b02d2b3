package frames

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// TickerScheduler крутит кадры с фиксированной частотой в отдельной горутине
type TickerScheduler struct {
	queue
	interval time.Duration
	logger   *zap.Logger

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewTickerScheduler создает планировщик кадров; Start запускает цикл
func NewTickerScheduler(interval time.Duration, logger *zap.Logger) *TickerScheduler {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &TickerScheduler{
		queue:    newQueue(),
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *TickerScheduler) RequestFrame(cb Callback) FrameID {
	return s.add(cb)
}

func (s *TickerScheduler) CancelFrame(id FrameID) {
	s.cancel(id)
}

// Start запускает цикл кадров; повторный вызов ничего не делает
func (s *TickerScheduler) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.loop()
		s.logger.Info("Frame scheduler started", zap.Duration("interval", s.interval))
	})
}

// Stop останавливает цикл и ждет его завершения
func (s *TickerScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if !s.started.Load() {
		return
	}
	<-s.done
	s.logger.Info("Frame scheduler stopped")
}

func (s *TickerScheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			for _, cb := range s.drain() {
				s.run(cb, now)
			}
		}
	}
}

func (s *TickerScheduler) run(cb Callback, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Frame callback panicked", zap.Any("panic", r))
		}
	}()
	cb(now)
}
