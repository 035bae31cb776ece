package domain

import (
	"context"
	"time"
)

// Extractor снимает текущий график со страницы источника.
// Ошибка всегда имеет тип *ExtractionError.
type Extractor interface {
	Extract(ctx context.Context) (ScheduleRecord, error)
}

// MessageTransport публикует и редактирует сообщение в канале.
// Ошибки имеют тип *TransportError.
type MessageTransport interface {
	Create(ctx context.Context, text string) (int, error)
	Edit(ctx context.Context, messageID int, text string) error
}

// RunLock защищает прогон от параллельного выполнения между репликами.
// acquired=false без ошибки означает, что блокировка занята.
type RunLock interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) (acquired bool, err error)
}
