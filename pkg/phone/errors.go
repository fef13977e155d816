package phone

import "errors"

var (
	// ErrStopped - цикл событий уже завершен
	ErrStopped = errors.New("phone: event loop stopped")
	// ErrAlreadyRunning - Run вызван повторно
	ErrAlreadyRunning = errors.New("phone: event loop already running")
)
