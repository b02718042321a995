// Package events публикует события об оплате для сервиса уведомлений.
package events

import (
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/models"
)

// Publisher отправляет сообщение с указанным routing key.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Emitter публикует события после фиксации изменений в базе.
// Ошибка публикации не отменяет уже сохранённое действие и только логируется.
type Emitter struct {
	pub Publisher
	log *slog.Logger
}

// NewEmitter создаёт Emitter. При pub == nil события не отправляются.
func NewEmitter(pub Publisher, log *slog.Logger) *Emitter {
	return &Emitter{pub: pub, log: log}
}

// Emit публикует ev с routing key, равным ev.Event.
func (e *Emitter) Emit(ev models.PaymentEvent) {
	const op = "events.Emit"
	if e == nil || e.pub == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := e.pub.Publish(ev.Event, ev); err != nil {
		e.log.Error("failed to publish payment event",
			slog.String("op", op),
			slog.String("event", ev.Event),
			slog.String("order_id", ev.OrderID),
			sl.Err(err))
		return
	}
	e.log.Debug("payment event published", slog.String("event", ev.Event), slog.String("order_id", ev.OrderID))
}
