package phone

import (
	"context"
	"log/slog"
	"time"

	"github.com/looplab/fsm"
)

// machine - ядро автомата: текущее состояние, контекст сеанса и побочные эффекты.
// Все методы вызываются только из цикла событий.
type machine struct {
	state   State
	session sessionContext

	// fsm проверяет, что обработчики возвращают только описанные переходы
	fsm *fsm.FSM

	signaling   Signaling
	timers      *TimerManager
	ringTimeout time.Duration

	// enqueue ставит событие в конец общей очереди
	enqueue func(Event) bool

	logger  *slog.Logger
	metrics *Metrics
}

func newMachine(number string, signaling Signaling, timers *TimerManager, enqueue func(Event) bool,
	ringTimeout time.Duration, logger *slog.Logger, metrics *Metrics) *machine {
	m := &machine{
		state:       Disconnected,
		session:     newSessionContext(number),
		signaling:   signaling,
		timers:      timers,
		ringTimeout: ringTimeout,
		enqueue:     enqueue,
		logger:      logger,
		metrics:     metrics,
	}
	m.initFSM()
	return m
}

func (m *machine) initFSM() {
	events := make(fsm.Events, 0, len(transitionEdges))
	for _, e := range transitionEdges {
		events = append(events, fsm.EventDesc{
			Name: formEventName(e.from, e.to),
			Src:  []string{string(e.from)},
			Dst:  string(e.to),
		})
	}
	m.fsm = fsm.NewFSM(
		string(Disconnected),
		events,
		fsm.Callbacks{
			"after_event": m.afterStateChange,
		})
}

// handle применяет одно событие. Возвращает false, если в текущем
// состоянии для события нет обработчика.
func (m *machine) handle(ev Event) bool {
	h, ok := lookup(m.state, ev.Kind)
	if !ok {
		m.logger.Debug("событие не обрабатывается в текущем состоянии",
			slog.String("state", m.state.String()),
			slog.String("event", ev.Kind.String()))
		m.metrics.ignored(m.state, ev.Kind)
		return false
	}

	next := h(m, ev)
	m.moveTo(next)
	return true
}

func (m *machine) moveTo(next State) {
	if next == m.state {
		return
	}
	from := m.state
	m.state = next

	if err := m.fsm.Event(context.Background(), formEventName(from, next)); err != nil {
		m.logger.Error("переход отсутствует в описании автомата",
			slog.String("from", from.String()),
			slog.String("to", next.String()),
			slog.Any("error", err))
		m.fsm.SetState(string(next))
	}
}

func (m *machine) afterStateChange(_ context.Context, e *fsm.Event) {
	m.logger.Debug("смена состояния",
		slog.String("from", e.Src),
		slog.String("to", e.Dst))
	m.metrics.transition(State(e.Src), State(e.Dst))
}

// send отправляет команду станции
func (m *machine) send(cmd Command) {
	m.logger.Debug("команда станции", slog.String("command", cmd.String()))
	m.metrics.command(cmd.Kind)
	m.signaling.Send(cmd)
}

// armRingTimer запускает таймер входящего вызова.
// Сработавший таймер ставит в очередь call-timeout со своим идентификатором.
func (m *machine) armRingTimer() {
	m.session.cancelRingTimer()
	m.session.ringTimer = m.timers.Arm(m.ringTimeout, func(id uint64) {
		m.enqueue(Event{Kind: EventCallTimeout, timerID: id})
	})
}

func (m *machine) snapshot() *Snapshot {
	return m.session.snapshot(m.state)
}
