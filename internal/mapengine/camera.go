package mapengine

import (
	"math"

	"github.com/paulmach/orb"
)

func (m *StyleMap) Camera() Camera {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.camera
}

// Transition - движение, которым клиент должен прийти к камере
func (m *StyleMap) Transition() Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transition
}

func (m *StyleMap) JumpTo(opts CameraOptions) {
	m.moveCamera(opts, TransitionJump)
}

func (m *StyleMap) EaseTo(opts CameraOptions) {
	m.moveCamera(opts, TransitionEase)
}

func (m *StyleMap) FlyTo(opts CameraOptions) {
	m.moveCamera(opts, TransitionFly)
}

func (m *StyleMap) moveCamera(opts CameraOptions, t Transition) {
	m.mu.Lock()
	if m.removed {
		m.mu.Unlock()
		return
	}
	if opts.Center != nil {
		m.camera.Center = *opts.Center
	}
	if opts.Zoom != nil {
		m.camera.Zoom = clamp(*opts.Zoom, 0, m.maxZoom)
	}
	if opts.Bearing != nil {
		m.camera.Bearing = *opts.Bearing
	}
	if opts.Pitch != nil {
		m.camera.Pitch = clamp(*opts.Pitch, 0, 85)
	}
	m.transition = t
	cam := m.camera
	m.mu.Unlock()

	m.Fire(Event{Type: EventMoveEnd, LngLat: cam.Center})
}

// FitBounds подбирает центр и зум так, чтобы bounds поместились в окно с отступом
func (m *StyleMap) FitBounds(bounds orb.Bound, padding float64) {
	m.mu.Lock()
	if m.removed {
		m.mu.Unlock()
		return
	}
	center, zoom := fitCamera(bounds, m.viewport, padding, m.maxZoom)
	m.camera.Center = center
	m.camera.Zoom = zoom
	m.camera.Bearing = 0
	m.transition = TransitionFit
	m.mu.Unlock()

	m.Fire(Event{Type: EventMoveEnd, LngLat: center})
}

func fitCamera(bounds orb.Bound, vp Viewport, padding, maxZoom float64) (orb.Point, float64) {
	minX, maxX := projectX(bounds.Min[0]), projectX(bounds.Max[0])
	// ось Y Меркатора направлена вниз
	minY, maxY := projectY(bounds.Max[1]), projectY(bounds.Min[1])

	center := orb.Point{unprojectX((minX + maxX) / 2), unprojectY((minY + maxY) / 2)}

	w := math.Max(float64(vp.Width)-2*padding, 1)
	h := math.Max(float64(vp.Height)-2*padding, 1)

	dx, dy := (maxX-minX)*tileExtent, (maxY-minY)*tileExtent
	if dx <= 0 && dy <= 0 {
		return center, maxZoom
	}

	zoom := maxZoom
	if dx > 0 {
		zoom = math.Min(zoom, math.Log2(w/dx))
	}
	if dy > 0 {
		zoom = math.Min(zoom, math.Log2(h/dy))
	}
	return center, clamp(zoom, 0, maxZoom)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
