package frames

import "time"

// ManualScheduler - планировщик для тестов: кадр выполняется только по Step
type ManualScheduler struct {
	queue
	now time.Time
}

func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{queue: newQueue(), now: start}
}

func (s *ManualScheduler) RequestFrame(cb Callback) FrameID {
	return s.add(cb)
}

func (s *ManualScheduler) CancelFrame(id FrameID) {
	s.cancel(id)
}

// Step сдвигает часы на d и выполняет один кадр. Возвращает число вызванных колбэков.
func (s *ManualScheduler) Step(d time.Duration) int {
	s.now = s.now.Add(d)
	callbacks := s.drain()
	for _, cb := range callbacks {
		cb(s.now)
	}
	return len(callbacks)
}

// Pending - сколько колбэков ждут следующего кадра
func (s *ManualScheduler) Pending() int {
	return s.size()
}

// Now - текущее время кадров
func (s *ManualScheduler) Now() time.Time {
	return s.now
}
