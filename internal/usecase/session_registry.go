package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/venue-map-service/internal/pkg/errors"
)

// SessionFactory собирает новую сессию с общими зависимостями
type SessionFactory func(id string) *MapSession

// SessionRegistry хранит сессии карт по идентификатору
type SessionRegistry struct {
	factory SessionFactory
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*MapSession
}

func NewSessionRegistry(factory SessionFactory, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{
		factory:  factory,
		logger:   logger,
		sessions: make(map[string]*MapSession),
	}
}

// Create создает сессию и сразу инициализирует ее карту
func (r *SessionRegistry) Create(opts InitOptions) *MapSession {
	id := uuid.New().String()
	s := r.factory(id)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	s.InitMap(opts)
	return s
}

func (r *SessionRegistry) Get(id string) (*MapSession, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	s.Touch()
	return s, nil
}

// Destroy уничтожает карту и удаляет сессию
func (r *SessionRegistry) Destroy(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return apperrors.ErrSessionNotFound
	}

	s.DestroyMap()
	return nil
}

// All возвращает сессии в порядке создания идентификаторов
func (r *SessionRegistry) All() []*MapSession {
	r.mu.RLock()
	out := make([]*MapSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle уничтожает сессии, неактивные дольше maxIdle
func (r *SessionRegistry) EvictIdle(now time.Time, maxIdle time.Duration) int {
	var stale []*MapSession

	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.LastSeen()) > maxIdle {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.DestroyMap()
	}
	if len(stale) > 0 {
		r.logger.Info("Idle sessions evicted", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// RefreshCategory пересобирает слои категории во всех сессиях
func (r *SessionRegistry) RefreshCategory(ctx context.Context, categoryID string) error {
	var errs []error
	for _, s := range r.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.RefreshCategory(ctx, categoryID); err != nil {
			r.logger.Warn("Failed to refresh category",
				zap.String("session_id", s.ID()),
				zap.String("category", categoryID),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close уничтожает все сессии
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*MapSession)
	r.mu.Unlock()

	for _, s := range sessions {
		s.DestroyMap()
	}
	r.logger.Info("Session registry closed", zap.Int("sessions", len(sessions)))
}
