package phone

import (
	"context"
	"log/slog"
)

// Run - цикл событий. Выполняется в одной выделенной горутине и
// блокируется до обработки shutdown или отмены ctx.
//
// Отмена ctx обрабатывается так же, как shutdown.
func (p *Phone) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(p.done)

	p.logger.Info("цикл событий запущен")

	for {
		ev, ok := p.queue.pop()
		if !ok {
			select {
			case <-p.queue.ready:
				continue
			case <-ctx.Done():
				p.logger.Info("контекст отменен, завершаем работу")
				p.shutdown()
				return ctx.Err()
			}
		}
		p.metrics.setQueueDepth(p.queue.len())

		switch ev.Kind {
		case EventShutdown:
			p.shutdown()
			return nil
		case eventBarrier:
			close(ev.done)
			continue
		}

		p.dispatch(ev)
	}
}

// dispatch передает событие ядру и уведомляет наблюдателей
func (p *Phone) dispatch(ev Event) {
	p.logger.Debug("обработка события",
		slog.String("event", ev.String()),
		slog.String("state", p.machine.state.String()))
	p.metrics.event(ev.Kind)

	p.machine.handle(ev)
	p.publish()
	p.observers.notify()
}

// shutdown отправляет hang-up для незавершенного вызова и закрывает канал станции.
// Оставшиеся в очереди события отбрасываются.
func (p *Phone) shutdown() {
	m := p.machine
	if m.session.pendingHangupNotify {
		m.send(hangUp())
		m.session.pendingHangupNotify = false
	}
	m.session.cancelRingTimer()

	if dropped := p.queue.close(); dropped > 0 {
		p.logger.Debug("события отброшены при завершении", slog.Int("count", dropped))
	}
	p.metrics.setQueueDepth(0)
	p.publish()

	if err := m.signaling.Close(); err != nil {
		p.logger.Warn("ошибка закрытия соединения со станцией", slog.Any("error", err))
	}
	p.logger.Info("цикл событий завершен", slog.String("state", m.state.String()))
}

// Sync ждет, пока будут обработаны все события, поставленные в очередь до вызова.
// Возвращает ErrStopped, если цикл завершился раньше.
func (p *Phone) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if !p.queue.push(Event{Kind: eventBarrier, done: done}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-p.done:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done закрывается после выхода из Run
func (p *Phone) Done() <-chan struct{} {
	return p.done
}
