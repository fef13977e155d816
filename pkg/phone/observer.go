package phone

import "sync"

// Observer получает уведомление после каждого обработанного события.
// StateChanged вызывается синхронно из цикла событий и не должен блокироваться;
// текущее состояние читается через Phone.Snapshot.
//
// Наблюдатели сравниваются по идентичности, поэтому реализация должна
// быть сравнимым типом (обычно указателем).
type Observer interface {
	StateChanged()
}

// observerList - список наблюдателей без владения
type observerList struct {
	mu        sync.Mutex
	observers []Observer
}

func (l *observerList) add(o Observer) {
	if o == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// remove удаляет первое вхождение наблюдателя. Отсутствующий наблюдатель игнорируется.
func (l *observerList) remove(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.observers {
		if existing == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

func (l *observerList) notify() {
	l.mu.Lock()
	observers := make([]Observer, len(l.observers))
	copy(observers, l.observers)
	l.mu.Unlock()

	for _, o := range observers {
		o.StateChanged()
	}
}

func (l *observerList) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.observers)
}
