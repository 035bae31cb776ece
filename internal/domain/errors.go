package domain

import (
	"errors"
	"fmt"
)

// ErrRunInFlight возвращается, если прогон уже выполняется.
var ErrRunInFlight = errors.New("pipeline run already in flight")

// ExtractionKind классифицирует ошибку извлечения графика.
type ExtractionKind string

const (
	// ExtractionNetwork — таймаут, ошибка соединения или не-2xx ответ.
	ExtractionNetwork ExtractionKind = "network"
	// ExtractionParse — страница не соответствует ожидаемой разметке.
	ExtractionParse ExtractionKind = "parse"
)

// ExtractionError описывает неудачное извлечение графика.
type ExtractionError struct {
	Kind ExtractionKind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NetworkFailure оборачивает сетевую ошибку.
func NetworkFailure(err error) *ExtractionError {
	return &ExtractionError{Kind: ExtractionNetwork, Err: err}
}

// ParseFailure оборачивает ошибку разбора.
func ParseFailure(err error) *ExtractionError {
	return &ExtractionError{Kind: ExtractionParse, Err: err}
}

// TransportKind классифицирует ошибку отправки в чат.
type TransportKind string

const (
	TransportCreateFailed      TransportKind = "create_failed"
	TransportEditFailed        TransportKind = "edit_failed"
	TransportEditExpired       TransportKind = "edit_expired"
	TransportMalformedResponse TransportKind = "malformed_response"
)

// TransportError — типизированная ошибка транспорта сообщений.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportKind проверяет, что err — TransportError указанного вида.
func IsTransportKind(err error, kind TransportKind) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == kind
}

// IsExtractionKind проверяет, что err — ExtractionError указанного вида.
func IsExtractionKind(err error, kind ExtractionKind) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == kind
}
