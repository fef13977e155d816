package exchange

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arzzra/soft_phone/pkg/phone"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// Adapter - граница между автоматом аппарата и станцией.
//
// Входящие кадры превращаются в события и ставятся в очередь sink,
// команды автомата пишутся в соединение отдельной горутиной в порядке Send.
// После разрыва со стороны станции адаптер переподключается с экспоненциальной
// задержкой. Adapter реализует phone.Signaling.
type Adapter struct {
	dialer Dialer
	number string

	logger  *slog.Logger
	metrics *Metrics

	retryInitial time.Duration
	retryMax     time.Duration

	mu      sync.Mutex
	conn    Conn
	outbox  []phone.Command
	started bool
	closed  bool

	// wake будит писателя, flush просит дописать outbox и завершиться
	wake  chan struct{}
	flush chan struct{}

	// cancel прерывает подключение и ожидание повтора,
	// closeConn закрывает текущее соединение
	cancel    context.CancelFunc
	closeConn context.CancelFunc
	wg        sync.WaitGroup
	writerWG  sync.WaitGroup
	closeOnce sync.Once
}

var _ phone.Signaling = (*Adapter)(nil)

// Задержки повторного подключения по умолчанию
const (
	DefaultRetryInitial = 500 * time.Millisecond
	DefaultRetryMax     = 10 * time.Second
)

// AdapterOption настраивает Adapter
type AdapterOption func(*Adapter)

// WithLogger задает логгер адаптера
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithMetrics задает метрики адаптера
func WithMetrics(metrics *Metrics) AdapterOption {
	return func(a *Adapter) {
		a.metrics = metrics
	}
}

// WithRetry задает начальную и максимальную задержку переподключения
func WithRetry(initial, maxDelay time.Duration) AdapterOption {
	return func(a *Adapter) {
		if initial > 0 {
			a.retryInitial = initial
		}
		if maxDelay > 0 {
			a.retryMax = maxDelay
		}
	}
}

// NewAdapter создает адаптер для номера number
func NewAdapter(dialer Dialer, number string, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		dialer:       dialer,
		number:       number,
		logger:       slog.Default(),
		retryInitial: DefaultRetryInitial,
		retryMax:     DefaultRetryMax,
		wake:         make(chan struct{}, 1),
		flush:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.retryMax < a.retryInitial {
		a.retryMax = a.retryInitial
	}
	a.logger = a.logger.With(slog.String("component", "exchange"), slog.String("number", number))
	return a
}

// Start подключается к станции в фоне. Результат подключения приходит в sink
// событием connected или connect-error, потеря связи - событием server-disconnect.
//
// Отмена ctx прерывает подключение и переподключение, но не закрывает
// установленное соединение: его закрывает Close после отправки команд из очереди.
func (a *Adapter) Start(ctx context.Context, sink phone.EventSink) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.started {
		return ErrAlreadyStarted
	}
	a.started = true

	connCtx, closeConn := context.WithCancel(context.WithoutCancel(ctx))
	ctx, a.cancel = context.WithCancel(ctx)
	a.closeConn = closeConn

	a.wg.Add(1)
	go a.run(ctx, connCtx, sink)
	return nil
}

func (a *Adapter) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.retryInitial
	b.MaxInterval = a.retryMax
	b.MaxElapsedTime = 0 // Переподключаемся, пока адаптер не закрыт
	b.Reset()
	return b
}

func (a *Adapter) run(ctx, connCtx context.Context, sink phone.EventSink) {
	defer a.wg.Done()

	retry := a.newBackOff()
	dialed := false

	for {
		a.logger.Info("подключение к станции")
		conn, err := a.dialer.Dial(ctx, a.number)
		if err != nil {
			a.metrics.connect("error")
			if ctx.Err() != nil {
				a.logger.Debug("подключение прервано", slog.Any("error", err))
				return
			}
			if !dialed {
				a.logger.Error("не удалось подключиться к станции", slog.Any("error", err))
				sink.Enqueue(phone.NewEvent(phone.EventConnectError, ConnectReason(err)))
				return
			}
			a.logger.Warn("переподключение не удалось", slog.Any("error", err))
			if !a.waitRetry(ctx, retry) {
				return
			}
			continue
		}

		dialed = true
		retry.Reset()
		if !a.serve(ctx, connCtx, conn, sink) {
			return
		}
		if !a.waitRetry(ctx, retry) {
			return
		}
	}
}

// waitRetry ждет задержку перед следующим подключением.
// Возвращает false, если ctx отменен.
func (a *Adapter) waitRetry(ctx context.Context, retry backoff.BackOff) bool {
	delay := retry.NextBackOff()
	if delay == backoff.Stop {
		return false
	}
	a.logger.Debug("повторное подключение", slog.Duration("delay", delay))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// serve обслуживает одно соединение до его разрыва.
// Возвращает true, если соединение разорвала станция и нужно переподключиться.
func (a *Adapter) serve(ctx, connCtx context.Context, conn Conn, sink phone.EventSink) bool {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		_ = conn.Close()
		return false
	}
	a.conn = conn
	a.writerWG.Add(1)
	a.mu.Unlock()

	a.metrics.connect("ok")
	a.logger.Info("соединение со станцией установлено")
	sink.Enqueue(phone.NewEvent(phone.EventConnected, ""))

	lost := make(chan struct{})
	go a.writeLoop(conn, lost)

	// connCtx отменяется из Close после того, как писатель дописал outbox
	stop := context.AfterFunc(connCtx, func() { _ = conn.Close() })
	defer stop()

	err := a.readLoop(conn, sink)

	a.mu.Lock()
	a.conn = nil
	a.outbox = nil
	a.mu.Unlock()
	close(lost)
	_ = conn.Close()

	if connCtx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrClosed) {
		a.logger.Info("станция закрыла соединение")
	} else {
		a.logger.Warn("соединение со станцией потеряно", slog.Any("error", err))
	}
	sink.Enqueue(phone.NewEvent(phone.EventServerDisconnect, ""))
	return ctx.Err() == nil
}

// readLoop переводит кадры в события до ошибки чтения
func (a *Adapter) readLoop(conn Conn, sink phone.EventSink) error {
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		a.metrics.frame(directionIn, msg.Event)
		ev, ok := toEvent(msg)
		if !ok {
			a.logger.Debug("неизвестный кадр станции отброшен",
				slog.String("event", msg.Event),
				slog.Any("args", msg.StringArgs()))
			continue
		}
		a.logger.Debug("кадр станции", slog.String("event", msg.Event), slog.String("mapped", ev.String()))
		sink.Enqueue(ev)
	}
}

// writeLoop пишет команды в conn, пока соединение живо
func (a *Adapter) writeLoop(conn Conn, lost <-chan struct{}) {
	defer a.writerWG.Done()
	for {
		select {
		case <-a.wake:
			a.drain(conn)
		case <-a.flush:
			a.drain(conn)
			return
		case <-lost:
			return
		}
	}
}

// drain пишет накопленные команды по порядку
func (a *Adapter) drain(conn Conn) {
	a.mu.Lock()
	pending := a.outbox
	a.outbox = nil
	a.mu.Unlock()

	for _, cmd := range pending {
		msg, ok := fromCommand(cmd)
		if !ok {
			a.logger.Warn("неизвестная команда не отправлена", slog.String("command", cmd.String()))
			continue
		}
		if err := conn.WriteMessage(msg); err != nil {
			a.metrics.writeError()
			a.logger.Warn("не удалось отправить команду",
				slog.String("command", cmd.String()),
				slog.Any("error", err))
			continue
		}
		a.metrics.frame(directionOut, msg.Event)
	}
}

// Send ставит команду в очередь отправки. Не блокируется.
// Без соединения команда отбрасывается.
func (a *Adapter) Send(cmd phone.Command) {
	if err := a.enqueue(cmd); err != nil {
		a.logger.Debug("команда отброшена", slog.String("command", cmd.String()), slog.Any("error", err))
	}
}

func (a *Adapter) enqueue(cmd phone.Command) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.conn == nil {
		return ErrNotConnected
	}
	a.outbox = append(a.outbox, cmd)

	select {
	case a.wake <- struct{}{}:
	default:
	}
	return nil
}

// Connected сообщает, установлено ли соединение
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil
}

// Close дописывает команды из очереди, закрывает соединение и ждет
// завершения горутин адаптера. Повторный вызов ничего не делает.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		cancel, closeConn := a.cancel, a.closeConn
		a.mu.Unlock()

		close(a.flush)
		a.writerWG.Wait()

		if cancel != nil {
			cancel()
			closeConn()
		}
		a.wg.Wait()
		a.logger.Info("соединение со станцией закрыто")
	})
	return nil
}
