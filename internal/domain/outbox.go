package domain

import "time"

// OutboxMessage хранит данные для публикуемого наружу события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// MaxOutboxAttempts ограничивает число неудачных публикаций, после которых
// failed-сообщение перестаёт попадать в выборку PullPending и требует
// ручного вмешательства.
const MaxOutboxAttempts = 5

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	// PullPending возвращает до limit сообщений к публикации: все pending
	// плюс failed, у которых число попыток ещё не достигло MaxOutboxAttempts.
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	// MarkFailed фиксирует неудачную публикацию и увеличивает счётчик попыток.
	MarkFailed(id string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}
