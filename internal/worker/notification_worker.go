package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ops-desk/internal/events"
	"github.com/spec-kit/ops-desk/internal/service"
)

const defaultQueueSize = 256

// NotificationWorker delivers notifications off the request path. Publishing
// only enqueues; a single goroutine drains the queue in order.
type NotificationWorker struct {
	notifications *service.NotificationService
	logger        *zap.Logger
	queue         chan events.Event
	wg            sync.WaitGroup
}

// NewNotificationWorker builds a worker with a bounded queue.
func NewNotificationWorker(notifications *service.NotificationService, logger *zap.Logger, queueSize int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		notifications: notifications,
		logger:        logger,
		queue:         make(chan events.Event, queueSize),
	}
}

// Register subscribes the worker to every event the notification service handles.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil || w.notifications == nil {
		return
	}
	for _, eventType := range w.notifications.EventTypes() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
}

// Start runs the delivery loop until ctx is cancelled or Stop is called.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.queue:
				if !ok {
					return
				}
				if err := w.notifications.Handle(ctx, event); err != nil {
					w.logger.Warn("notification failed", zap.String("event_id", event.ID), zap.Error(err))
				}
			}
		}
	}()
}

// Stop closes the queue and waits for pending events to drain.
func (w *NotificationWorker) Stop() {
	close(w.queue)
	w.wg.Wait()
}

// enqueue drops the event when the queue is full; notifications are best effort.
func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}
