package mockExchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arzzra/soft_phone/pkg/exchange"
)

// deliverTimeout - таймаут доставки кадра в заполненный буфер
const deliverTimeout = 100 * time.Millisecond

// Endpoint - серверная сторона подключения одного аппарата
type Endpoint struct {
	number   string
	registry *Registry

	toClient chan exchange.Message
	toServer chan exchange.Message

	closed    chan struct{}
	closeOnce sync.Once
	byClient  bool
	closedMu  sync.RWMutex
	client    *clientConn
}

func newEndpoint(number string, bufferSize int, registry *Registry) *Endpoint {
	e := &Endpoint{
		number:   number,
		registry: registry,
		toClient: make(chan exchange.Message, bufferSize),
		toServer: make(chan exchange.Message, bufferSize),
		closed:   make(chan struct{}),
	}
	e.client = &clientConn{endpoint: e}
	return e
}

// Number возвращает номер, с которым подключился аппарат
func (e *Endpoint) Number() string {
	return e.number
}

// Emit отправляет аппарату событие станции
func (e *Endpoint) Emit(event string, args ...string) error {
	return e.deliver(e.toClient, exchange.NewMessage(event, args...))
}

// EmitMessage отправляет аппарату произвольный кадр
func (e *Endpoint) EmitMessage(msg exchange.Message) error {
	return e.deliver(e.toClient, msg)
}

// Receive ждет следующую команду аппарата
func (e *Endpoint) Receive(ctx context.Context) (exchange.Message, error) {
	select {
	case msg := <-e.toServer:
		return msg, nil
	case <-ctx.Done():
		return exchange.Message{}, ctx.Err()
	case <-e.closed:
		// команды, отправленные до закрытия, остаются доступны
		select {
		case msg := <-e.toServer:
			return msg, nil
		default:
			return exchange.Message{}, exchange.ErrClosed
		}
	}
}

// Disconnect разрывает соединение со стороны станции
func (e *Endpoint) Disconnect() {
	e.close(false)
}

// Closed закрывается при разрыве соединения с любой стороны
func (e *Endpoint) Closed() <-chan struct{} {
	return e.closed
}

// ClosedByClient сообщает, что соединение закрыл аппарат
func (e *Endpoint) ClosedByClient() bool {
	e.closedMu.RLock()
	defer e.closedMu.RUnlock()
	return e.byClient
}

func (e *Endpoint) close(byClient bool) {
	e.closeOnce.Do(func() {
		e.closedMu.Lock()
		e.byClient = byClient
		e.closedMu.Unlock()
		close(e.closed)
		e.registry.remove(e)
	})
}

func (e *Endpoint) isClosed() bool {
	select {
	case <-e.closed:
		return true
	default:
		return false
	}
}

func (e *Endpoint) deliver(ch chan exchange.Message, msg exchange.Message) error {
	if e.isClosed() {
		return exchange.ErrClosed
	}

	select {
	case ch <- msg:
		return nil
	case <-e.closed:
		return exchange.ErrClosed
	case <-time.After(deliverTimeout): // Таймаут для предотвращения deadlock
		return fmt.Errorf("buffer full for endpoint %s", e.number)
	}
}

// clientConn - сторона аппарата, реализует exchange.Conn
type clientConn struct {
	endpoint *Endpoint
}

var _ exchange.Conn = (*clientConn)(nil)

func (c *clientConn) ReadMessage() (exchange.Message, error) {
	e := c.endpoint
	select {
	case msg := <-e.toClient:
		return msg, nil
	case <-e.closed:
		return exchange.Message{}, exchange.ErrClosed
	}
}

func (c *clientConn) WriteMessage(msg exchange.Message) error {
	return c.endpoint.deliver(c.endpoint.toServer, msg)
}

func (c *clientConn) Close() error {
	c.endpoint.close(true)
	return nil
}
