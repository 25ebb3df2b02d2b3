package maplayers

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/metrics"
	"github.com/venue-map-service/internal/pkg/frames"
)

// BounceState - состояние анимации выбранной точки
type BounceState int

const (
	BounceIdle BounceState = iota
	BounceRunning
)

func (s BounceState) String() string {
	if s == BounceRunning {
		return "running"
	}
	return "idle"
}

const (
	bounceLiftPx     = 3.0
	bounceScaleBase  = 1.3
	bounceScaleAmp   = 0.12
	bounceHaloPulse  = 0.25
	bouncePeriodSecs = 1.0
)

// Bouncer - цикл анимации «подпрыгивания» выбранной точки.
// Слои ищутся заново на каждом кадре, поэтому цикл переживает пересборку слоев.
type Bouncer struct {
	m      mapengine.Map
	sched  frames.Scheduler
	logger *zap.Logger

	// frameMu держится на время записи кадра в карту; Stop ждет его перед сбросом
	frameMu sync.Mutex

	mu       sync.Mutex
	state    BounceState
	category string
	target   string
	start    time.Time
	frame    frames.FrameID
	gen      uint64
}

func NewBouncer(m mapengine.Map, sched frames.Scheduler, logger *zap.Logger) *Bouncer {
	return &Bouncer{
		m:      m,
		sched:  sched,
		logger: logger,
	}
}

// Start запускает анимацию для placeID; запущенный цикл переключается на новую цель
func (b *Bouncer) Start(categoryID, placeID string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != 0 {
		b.sched.CancelFrame(b.frame)
		b.frame = 0
	}
	b.gen++
	b.state = BounceRunning
	b.category = categoryID
	b.target = placeID
	b.start = now

	gen := b.gen
	b.frame = b.sched.RequestFrame(func(t time.Time) { b.tick(gen, t) })

	b.logger.Debug("Bounce started",
		zap.String("map_id", b.m.ID()),
		zap.String("category", categoryID),
		zap.String("place_id", placeID),
	)
}

// Stop останавливает цикл и возвращает смещение иконок в ноль. Можно вызывать повторно.
func (b *Bouncer) Stop() {
	b.mu.Lock()
	if b.frame != 0 {
		b.sched.CancelFrame(b.frame)
		b.frame = 0
	}
	b.gen++
	b.state = BounceIdle
	b.target = ""
	b.category = ""
	b.mu.Unlock()

	b.frameMu.Lock()
	defer b.frameMu.Unlock()
	for _, sym := range MatchClusterLayers(b.m.Style()).Symbols {
		_ = b.m.SetLayoutProperty(sym, "icon-offset", []any{0.0, 0.0})
	}
}

// State возвращает состояние и цель
func (b *Bouncer) State() (BounceState, string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.category, b.target
}

func (b *Bouncer) tick(gen uint64, now time.Time) {
	b.frameMu.Lock()
	defer b.frameMu.Unlock()

	b.mu.Lock()
	if gen != b.gen || b.state != BounceRunning {
		b.mu.Unlock()
		return
	}
	target, start := b.target, b.start
	b.frame = 0
	b.mu.Unlock()

	b.applyFrame(target, now.Sub(start))
	metrics.IncBounceFrame()

	b.mu.Lock()
	if gen == b.gen && b.state == BounceRunning {
		b.frame = b.sched.RequestFrame(func(t time.Time) { b.tick(gen, t) })
	}
	b.mu.Unlock()
}

// BounceFrame - значения анимации в момент elapsed
type BounceFrame struct {
	Lift      float64
	Scale     float64
	HaloScale float64
}

func ComputeBounceFrame(elapsed time.Duration) BounceFrame {
	phase := elapsed.Seconds() / bouncePeriodSecs
	amp := math.Abs(math.Sin(phase * 2 * math.Pi))
	return BounceFrame{
		Lift:      -bounceLiftPx * amp,
		Scale:     bounceScaleBase + bounceScaleAmp*amp,
		HaloScale: 1 + bounceHaloPulse*amp,
	}
}

func (b *Bouncer) applyFrame(target string, elapsed time.Duration) {
	f := ComputeBounceFrame(elapsed)
	layers := MatchClusterLayers(b.m.Style())

	sel := mapengine.Eq(mapengine.Get(domain.PropID), target)
	size := mapengine.InterpolateZoom(
		10, mapengine.Case(sel, f.Scale, 0.9),
		14, mapengine.Case(sel, f.Scale+0.2, 1.1),
		16, mapengine.Case(sel, f.Scale+0.35, 1.25),
	)
	offset := mapengine.Case(sel,
		mapengine.Literal([]any{0.0, f.Lift}),
		mapengine.Literal([]any{0.0, 0.0}),
	)
	radius := mapengine.InterpolateZoom(10, 10*f.HaloScale, 14, 14*f.HaloScale, 16, 18*f.HaloScale)

	for _, sym := range layers.Symbols {
		_ = b.m.SetLayoutProperty(sym, "icon-size", size)
		_ = b.m.SetLayoutProperty(sym, "icon-offset", offset)
	}
	for _, halo := range layers.Halos {
		_ = b.m.SetPaintProperty(halo, "circle-radius", radius)
	}
}
