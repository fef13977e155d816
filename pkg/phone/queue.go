package phone

import "sync"

// eventQueue - неограниченная FIFO очередь с одним потребителем.
// push никогда не блокирует производителя.
type eventQueue struct {
	mu     sync.Mutex
	items  []Event
	closed bool

	// ready содержит не более одного сигнала о новых событиях
	ready chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		ready: make(chan struct{}, 1),
	}
}

// push добавляет событие в конец очереди.
// После close события отбрасываются, возвращается false.
func (q *eventQueue) push(ev Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// pop извлекает самое старое событие без ожидания
func (q *eventQueue) pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Event{}, false
	}
	ev := q.items[0]
	q.items[0] = Event{}
	q.items = q.items[1:]
	return ev, true
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close запрещает новые события и отбрасывает оставшиеся.
// Возвращает количество отброшенных событий.
func (q *eventQueue) close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	n := len(q.items)
	q.items = nil
	return n
}
