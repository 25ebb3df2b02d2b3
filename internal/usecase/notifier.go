package usecase

import (
	"sync"
	"time"
)

// NotificationLevel - тон уведомления для клиента
type NotificationLevel string

const (
	NotifyInfo    NotificationLevel = "info"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Notification - короткое сообщение пользователю (toast)
type Notification struct {
	SessionID string            `json:"session_id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Time      time.Time         `json:"time"`
}

// Notifier получает пользовательские исходы команд вместо ошибок в UI
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc адаптирует функцию к Notifier
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

const defaultNotificationBuffer = 32

// NotificationBuffer хранит последние уведомления сессии, пока клиент их не заберет
type NotificationBuffer struct {
	mu    sync.Mutex
	limit int
	items []Notification
}

func NewNotificationBuffer(limit int) *NotificationBuffer {
	if limit <= 0 {
		limit = defaultNotificationBuffer
	}
	return &NotificationBuffer{limit: limit}
}

func (b *NotificationBuffer) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, n)
	if over := len(b.items) - b.limit; over > 0 {
		b.items = append(b.items[:0:0], b.items[over:]...)
	}
}

// Drain возвращает накопленное и очищает буфер
func (b *NotificationBuffer) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.items
	b.items = nil
	return out
}
