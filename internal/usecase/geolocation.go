package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/pkg/utils"
)

// LocatorConfig - параметры определения положения пользователя
type LocatorConfig struct {
	UseDummy bool
	Dummy    orb.Point
	Timeout  time.Duration
	MaxAge   time.Duration
}

// DefaultDummyLocation - запасная точка, центр Дакара
var DefaultDummyLocation = orb.Point{-17.4467, 14.6928}

const (
	defaultGeolocationTimeout = 8 * time.Second
	defaultGeolocationMaxAge  = 30 * time.Second
)

// Position - положение, присланное устройством клиента
type Position struct {
	Point     orb.Point `json:"point"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Locator отдает положение пользователя. Устройство присылает координаты через Report;
// если их нет, они устарели или пришел отказ, используется запасная точка. Ошибок не бывает.
type Locator struct {
	cfg    LocatorConfig
	now    func() time.Time
	logger *zap.Logger

	mu          sync.Mutex
	last        *Position
	unavailable bool
	waiters     []chan orb.Point
}

func NewLocator(cfg LocatorConfig, now func() time.Time, logger *zap.Logger) *Locator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGeolocationTimeout
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultGeolocationMaxAge
	}
	if cfg.Dummy == (orb.Point{}) {
		cfg.Dummy = DefaultDummyLocation
	}
	if now == nil {
		now = time.Now
	}
	return &Locator{cfg: cfg, now: now, logger: logger}
}

// Report сохраняет положение устройства и будит ожидающих
func (l *Locator) Report(pos Position) bool {
	if !utils.ValidatePoint(pos.Point) {
		return false
	}
	if pos.Timestamp.IsZero() {
		pos.Timestamp = l.now()
	}

	l.mu.Lock()
	l.last = &pos
	l.unavailable = false
	waiters := l.waiters
	l.waiters = nil
	l.mu.Unlock()

	for _, w := range waiters {
		w <- pos.Point
	}
	return true
}

// ReportUnavailable - устройство отказало в доступе или не умеет геолокацию
func (l *Locator) ReportUnavailable() {
	l.mu.Lock()
	l.unavailable = true
	l.last = nil
	waiters := l.waiters
	l.waiters = nil
	l.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
}

// Dummy - запасная точка
func (l *Locator) Dummy() orb.Point {
	return l.cfg.Dummy
}

// UsesDummy - включен ли режим запасной точки в конфигурации
func (l *Locator) UsesDummy() bool {
	return l.cfg.UseDummy
}

// Locate возвращает положение и признак того, что оно настоящее.
// Ждет свежие координаты не дольше Timeout.
func (l *Locator) Locate(ctx context.Context) (orb.Point, bool) {
	if l.cfg.UseDummy {
		return l.cfg.Dummy, false
	}

	l.mu.Lock()
	if l.last != nil && l.now().Sub(l.last.Timestamp) <= l.cfg.MaxAge {
		p := l.last.Point
		l.mu.Unlock()
		return p, true
	}
	if l.unavailable {
		l.mu.Unlock()
		return l.cfg.Dummy, false
	}
	w := make(chan orb.Point, 1)
	l.waiters = append(l.waiters, w)
	l.mu.Unlock()

	timer := time.NewTimer(l.cfg.Timeout)
	defer timer.Stop()

	select {
	case p, ok := <-w:
		if ok {
			return p, true
		}
	case <-timer.C:
		l.logger.Debug("Geolocation timed out, using fallback",
			zap.Duration("timeout", l.cfg.Timeout))
	case <-ctx.Done():
	}

	l.dropWaiter(w)
	return l.cfg.Dummy, false
}

func (l *Locator) dropWaiter(w chan orb.Point) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, x := range l.waiters {
		if x == w {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return
		}
	}
}
