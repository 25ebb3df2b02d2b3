package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// emptyQueueSleep - пауза, если очередь пуста
	emptyQueueSleep = 200 * time.Millisecond
	// errorSleep - пауза после ошибки чтения
	errorSleep = time.Second
)

// BatchFunc обрабатывает одну пачку и возвращает число прочитанных сообщений
type BatchFunc func(ctx context.Context) (int, error)

// BaseWorker содержит общую логику для всех воркеров
type BaseWorker struct {
	name          string
	logger        *zap.Logger
	stopChan      chan struct{}
	stopped       bool
	mu            sync.Mutex
	consumerGroup string
	consumerName  string
	idleSleep     time.Duration
}

// NewBaseWorker создает новый BaseWorker
func NewBaseWorker(name, consumerGroup string, logger *zap.Logger) *BaseWorker {
	hostname, _ := os.Hostname()

	return &BaseWorker{
		name:          name,
		logger:        logger.With(zap.String("worker", name)),
		stopChan:      make(chan struct{}),
		consumerGroup: consumerGroup,
		consumerName:  fmt.Sprintf("%s-%s-%d", name, hostname, os.Getpid()),
		idleSleep:     emptyQueueSleep,
	}
}

// Name возвращает имя воркера
func (w *BaseWorker) Name() string {
	return w.name
}

// Stop останавливает воркер
func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.logger.Info("Stopping worker")
	close(w.stopChan)
	w.stopped = true

	return nil
}

// IsStopped проверяет, остановлен ли воркер
func (w *BaseWorker) IsStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// StopChan возвращает канал остановки
func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

// ConsumerGroup возвращает имя consumer group
func (w *BaseWorker) ConsumerGroup() string {
	return w.consumerGroup
}

// ConsumerName - имя потребителя внутри группы, уникальное для процесса
func (w *BaseWorker) ConsumerName() string {
	return w.consumerName
}

// SetIdleSleep меняет паузу на пустой очереди
func (w *BaseWorker) SetIdleSleep(d time.Duration) {
	if d > 0 {
		w.idleSleep = d
	}
}

// Logger возвращает логгер
func (w *BaseWorker) Logger() *zap.Logger {
	return w.logger
}

// RunLoop вызывает process, пока воркер не остановят или не отменят ctx.
// Stop возвращает nil, отмена контекста - ctx.Err().
func (w *BaseWorker) RunLoop(ctx context.Context, process BatchFunc) error {
	for {
		select {
		case <-w.StopChan():
			w.logger.Info("Worker stopped")
			return nil
		case <-ctx.Done():
			w.logger.Info("Context cancelled")
			return ctx.Err()
		default:
		}

		processed, err := process(ctx)
		pause := time.Duration(0)
		switch {
		case err != nil:
			w.logger.Error("Failed to process batch", zap.Error(err))
			pause = errorSleep
		case processed == 0:
			pause = w.idleSleep
		}
		if pause == 0 {
			continue
		}

		select {
		case <-w.StopChan():
		case <-ctx.Done():
		case <-time.After(pause):
		}
	}
}
