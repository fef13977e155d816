package phone

import (
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// dialKeys - клавиши номеронабирателя
const dialKeys = "0123456789*#"

// Phone - эмулятор телефонного аппарата.
//
// Методы пользовательских действий (PressDigit, GoOnHook, ...) только ставят
// события в очередь и безопасны для вызова из любой горутины.
// Состояние меняется исключительно в Run.
type Phone struct {
	id string

	queue   *eventQueue
	machine *machine
	timers  *TimerManager

	observers observerList
	snapshot  atomic.Pointer[Snapshot]

	running atomic.Bool
	done    chan struct{}

	logger  *slog.Logger
	metrics *Metrics
}

type options struct {
	number      string
	logger      *slog.Logger
	metrics     *Metrics
	ringTimeout time.Duration
	observers   []Observer
}

// Option настраивает Phone
type Option func(*options)

// WithLogger задает логгер. По умолчанию slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics задает сборщик метрик
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithRingTimeout задает время звонка входящего вызова до отказа по таймауту
func WithRingTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ringTimeout = d
		}
	}
}

// WithObserver регистрирует наблюдателя при создании. Он сразу получит StateChanged.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, observer)
	}
}

// WithNumber задает номер, который показывается до регистрации на станции
func WithNumber(number string) Option {
	return func(o *options) {
		o.number = number
	}
}

// New создает аппарат в состоянии Disconnected с лежащей трубкой.
// signaling получает исходящие команды; nil - команды отбрасываются.
func New(signaling Signaling, opts ...Option) *Phone {
	o := options{
		logger:      slog.Default(),
		ringTimeout: DefaultRingTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if signaling == nil {
		signaling = discardSignaling{}
	}

	p := &Phone{
		id:      uuid.NewString(),
		queue:   newEventQueue(),
		done:    make(chan struct{}),
		metrics: o.metrics,
	}
	p.logger = o.logger.With(slog.String("component", "phone"), slog.String("session", p.id))
	p.timers = NewTimerManager(o.metrics)
	p.machine = newMachine(o.number, signaling, p.timers, p.Enqueue, o.ringTimeout, p.logger, o.metrics)

	p.publish()
	for _, observer := range o.observers {
		p.observers.add(observer)
	}
	p.observers.notify()

	return p
}

// ID возвращает идентификатор сеанса (используется в логах)
func (p *Phone) ID() string {
	return p.id
}

// Enqueue ставит событие в очередь. Не блокируется.
// После завершения цикла событие отбрасывается и возвращается false.
func (p *Phone) Enqueue(ev Event) bool {
	if !p.queue.push(ev) {
		p.logger.Debug("событие после завершения отброшено", slog.String("event", ev.String()))
		return false
	}
	return true
}

// Snapshot возвращает состояние после последнего обработанного события
func (p *Phone) Snapshot() Snapshot {
	return *p.snapshot.Load()
}

// State возвращает текущее состояние автомата
func (p *Phone) State() State {
	return p.snapshot.Load().State
}

// RegisterObserver добавляет наблюдателя
func (p *Phone) RegisterObserver(o Observer) {
	p.observers.add(o)
}

// UnregisterObserver удаляет наблюдателя; незарегистрированный игнорируется
func (p *Phone) UnregisterObserver(o Observer) {
	p.observers.remove(o)
}

// TimerStats возвращает счетчики таймеров вызова
func (p *Phone) TimerStats() TimerStats {
	return p.timers.Stats()
}

// Пользовательские действия

// PressDigit нажимает клавишу номеронабирателя (0-9, * или #).
// Возвращает false для других символов.
func (p *Phone) PressDigit(d rune) bool {
	if !strings.ContainsRune(dialKeys, d) {
		p.logger.Debug("неизвестная клавиша", slog.String("key", string(d)))
		return false
	}
	return p.Enqueue(NewEvent(EventDigitPressed, string(d)))
}

// GoOnHook кладет трубку
func (p *Phone) GoOnHook() bool {
	return p.Enqueue(NewEvent(EventOnHook, ""))
}

// GoOffHook снимает трубку
func (p *Phone) GoOffHook() bool {
	return p.Enqueue(NewEvent(EventOffHook, ""))
}

// SendTalk отправляет реплику собеседнику
func (p *Phone) SendTalk(text string) bool {
	return p.Enqueue(NewEvent(EventOutgoingTalk, text))
}

// RequestShutdown завершает работу аппарата
func (p *Phone) RequestShutdown() bool {
	return p.Enqueue(NewEvent(EventShutdown, ""))
}

func (p *Phone) publish() {
	p.snapshot.Store(p.machine.snapshot())
}
