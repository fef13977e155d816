package phone

import "fmt"

// EventKind - тип события конечного автомата.
type EventKind string

const (
	// События жизненного цикла соединения со станцией
	EventConnected        EventKind = "connected"
	EventConnectError     EventKind = "connect-error"
	EventServerDisconnect EventKind = "server-disconnect"

	// Уведомления станции
	EventRegistered         EventKind = "registered"
	EventCallRequest        EventKind = "call-request"
	EventCalleeRinging      EventKind = "callee-ringing"
	EventCalleeBusy         EventKind = "callee-busy"
	EventCalleeNotAvailable EventKind = "callee-not-available"
	EventCallTimeout        EventKind = "call-timeout"
	EventCallCancelled      EventKind = "call-cancelled"
	EventCallConnected      EventKind = "call-connected"
	EventCallEnded          EventKind = "call-ended"
	EventIncomingTalk       EventKind = "incoming-talk"

	// Действия пользователя
	EventOutgoingTalk EventKind = "outgoing-talk"
	EventDigitPressed EventKind = "digit-pressed"
	EventOnHook       EventKind = "on-hook"
	EventOffHook      EventKind = "off-hook"

	// EventShutdown завершает цикл событий
	EventShutdown EventKind = "shutdown"

	// eventBarrier используется Sync, в таблицу переходов не попадает
	eventBarrier EventKind = "barrier"
)

func (k EventKind) String() string {
	return string(k)
}

// Event - неизменяемое событие с необязательной нагрузкой.
// Нагрузка зависит от типа: цифра, номер телефона, текст или причина ошибки.
type Event struct {
	Kind    EventKind
	Payload string

	// timerID - идентификатор таймера, породившего call-timeout (0 для событий станции)
	timerID uint64
	// done закрывается, когда цикл дошел до барьера
	done chan struct{}
}

// NewEvent создает событие указанного типа
func NewEvent(kind EventKind, payload string) Event {
	return Event{Kind: kind, Payload: payload}
}

func (e Event) String() string {
	if e.Payload == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s(%q)", e.Kind, e.Payload)
}

// EventSink принимает события от производителей.
// Реализация обязана быть потокобезопасной и неблокирующей.
type EventSink interface {
	Enqueue(ev Event) bool
}
