package exchange

import (
	"encoding/json"
	"strings"

	"github.com/arzzra/soft_phone/pkg/phone"
)

// Имена событий в кадрах станции
const (
	// Входящие
	WireRegistered      = "registered"
	WireCallRequest     = "call_request"
	WireCalleeRinging   = "callee_ringing"
	WireCallNotPossible = "call_not_possible"
	WireCallCancelled   = "call_cancelled"
	WireCallConnected   = "call_connected"
	WireCallEnded       = "call_ended"
	WireTalk            = "talk"

	// Исходящие
	WireMakeCall              = "make_call"
	WireHangUp                = "hang_up"
	WireCallAccepted          = "call_accepted"
	WireCallAcknowledged      = "call_acknowledged"
	WireCallRefused           = "call_refused"
	WireCallBlockingCheckAuth = "call_blocking_check_auth"
)

// Причины в call_not_possible
const (
	reasonBusy    = "busy"
	reasonTimeout = "timeout"
)

// Message - кадр протокола станции
type Message struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args,omitempty"`
}

// NewMessage создает кадр со строковыми аргументами
func NewMessage(event string, args ...string) Message {
	msg := Message{Event: event}
	for _, arg := range args {
		raw, _ := json.Marshal(arg)
		msg.Args = append(msg.Args, raw)
	}
	return msg
}

// Arg возвращает аргумент i как строку.
// Объект с полем message сводится к его значению, отсутствующий аргумент - пустая строка.
func (m Message) Arg(i int) string {
	if i < 0 || i >= len(m.Args) {
		return ""
	}
	raw := m.Args[i]

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return strings.TrimSpace(string(raw))
}

// StringArgs возвращает все аргументы как строки
func (m Message) StringArgs() []string {
	out := make([]string, len(m.Args))
	for i := range m.Args {
		out[i] = m.Arg(i)
	}
	return out
}

// toEvent переводит входящий кадр в событие автомата.
// Для неизвестных кадров возвращает false.
func toEvent(msg Message) (phone.Event, bool) {
	switch msg.Event {
	case WireRegistered:
		return phone.NewEvent(phone.EventRegistered, msg.Arg(0)), true
	case WireCallRequest:
		return phone.NewEvent(phone.EventCallRequest, msg.Arg(0)), true
	case WireCalleeRinging:
		return phone.NewEvent(phone.EventCalleeRinging, ""), true
	case WireCallNotPossible:
		switch msg.Arg(0) {
		case reasonBusy:
			return phone.NewEvent(phone.EventCalleeBusy, ""), true
		case reasonTimeout:
			return phone.NewEvent(phone.EventCallTimeout, ""), true
		default:
			return phone.NewEvent(phone.EventCalleeNotAvailable, ""), true
		}
	case WireCallCancelled:
		return phone.NewEvent(phone.EventCallCancelled, ""), true
	case WireCallConnected:
		return phone.NewEvent(phone.EventCallConnected, ""), true
	case WireCallEnded:
		return phone.NewEvent(phone.EventCallEnded, ""), true
	case WireTalk:
		return phone.NewEvent(phone.EventIncomingTalk, msg.Arg(0)), true
	default:
		return phone.Event{}, false
	}
}

// fromCommand переводит команду автомата в исходящий кадр
func fromCommand(cmd phone.Command) (Message, bool) {
	switch cmd.Kind {
	case phone.CommandMakeCall:
		return NewMessage(WireMakeCall, cmd.Number), true
	case phone.CommandHangUp:
		return NewMessage(WireHangUp), true
	case phone.CommandCallAccepted:
		return NewMessage(WireCallAccepted), true
	case phone.CommandCallAcknowledged:
		return NewMessage(WireCallAcknowledged, cmd.Number), true
	case phone.CommandCallRefused:
		return NewMessage(WireCallRefused, cmd.Number, cmd.Reason), true
	case phone.CommandTalk:
		return NewMessage(WireTalk, cmd.Text), true
	case phone.CommandCallBlockingCheckAuth:
		return NewMessage(WireCallBlockingCheckAuth), true
	default:
		return Message{}, false
	}
}
