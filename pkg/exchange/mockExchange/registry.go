package mockExchange

import (
	"context"
	"sync"
	"time"

	"github.com/arzzra/soft_phone/pkg/exchange"
)

// defaultPollInterval - период проверки в WaitEndpoint
const defaultPollInterval = 5 * time.Millisecond

// Registry - in-memory станция, хранит подключенные аппараты по номеру.
type Registry struct {
	mu         sync.RWMutex
	endpoints  map[string]*Endpoint
	rejections map[string]*exchange.HandshakeError
	bufferSize int
}

var _ exchange.Dialer = (*Registry)(nil)

// NewRegistry создает пустую станцию
func NewRegistry() *Registry {
	return &Registry{
		endpoints:  make(map[string]*Endpoint),
		rejections: make(map[string]*exchange.HandshakeError),
		bufferSize: 100, // Размер буфера по умолчанию
	}
}

// SetBufferSize устанавливает размер буферов для новых подключений
func (r *Registry) SetBufferSize(size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if size < 1 {
		size = 1
	}
	r.bufferSize = size
}

// Reject заставляет следующие подключения номера завершаться отказом
// со статусом status и сообщением message
func (r *Registry) Reject(number string, status int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections[number] = &exchange.HandshakeError{StatusCode: status, Message: message}
}

// Accept снимает отказ, заданный Reject
func (r *Registry) Accept(number string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rejections, number)
}

// Dial подключает аппарат number. Повторное подключение заменяет прежнее.
func (r *Registry) Dial(ctx context.Context, number string) (exchange.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if hs, ok := r.rejections[number]; ok {
		return nil, &exchange.HandshakeError{StatusCode: hs.StatusCode, Message: hs.Message}
	}

	endpoint := newEndpoint(number, r.bufferSize, r)
	if prev, ok := r.endpoints[number]; ok {
		go prev.Disconnect()
	}
	r.endpoints[number] = endpoint
	return endpoint.client, nil
}

// Endpoint возвращает серверную сторону подключения номера
func (r *Registry) Endpoint(number string) (*Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.endpoints[number]
	return e, ok
}

// WaitEndpoint ждет подключения номера
func (r *Registry) WaitEndpoint(ctx context.Context, number string) (*Endpoint, error) {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		if e, ok := r.Endpoint(number); ok {
			return e, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ListEndpoints возвращает номера подключенных аппаратов
func (r *Registry) ListEndpoints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	numbers := make([]string, 0, len(r.endpoints))
	for number := range r.endpoints {
		numbers = append(numbers, number)
	}
	return numbers
}

func (r *Registry) remove(e *Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.endpoints[e.number] == e {
		delete(r.endpoints, e.number)
	}
}

// CloseAll разрывает все подключения
func (r *Registry) CloseAll() {
	r.mu.Lock()
	endpoints := make([]*Endpoint, 0, len(r.endpoints))
	for _, e := range r.endpoints {
		endpoints = append(endpoints, e)
	}
	r.endpoints = make(map[string]*Endpoint)
	r.mu.Unlock()

	for _, e := range endpoints {
		e.Disconnect()
	}
}
