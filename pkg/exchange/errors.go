package exchange

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotConnected - соединение со станцией еще не установлено или потеряно
	ErrNotConnected = errors.New("exchange: not connected")
	// ErrClosed - адаптер или соединение закрыты
	ErrClosed = errors.New("exchange: closed")
	// ErrAlreadyStarted - Start вызван повторно
	ErrAlreadyStarted = errors.New("exchange: adapter already started")
	// ErrHandshake - станция отклонила подключение
	ErrHandshake = errors.New("exchange: handshake rejected")
)

// HandshakeError - отказ станции при установке соединения.
// Message берется из JSON тела ответа {"message": "..."}, если оно есть.
type HandshakeError struct {
	StatusCode int
	Message    string
}

func (e *HandshakeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("handshake rejected with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("handshake rejected with status %d", e.StatusCode)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrHandshake)
func (e *HandshakeError) Unwrap() error {
	return ErrHandshake
}

// ConnectReason возвращает текст причины для события connect-error.
// Для отказа станции это ее сообщение, для остальных ошибок текст первопричины.
func ConnectReason(err error) string {
	var hs *HandshakeError
	if errors.As(err, &hs) && hs.Message != "" {
		return hs.Message
	}
	return errors.Cause(err).Error()
}
