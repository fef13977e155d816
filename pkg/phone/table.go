package phone

import "strings"

// handler обрабатывает событие и возвращает следующее состояние.
// Может менять контекст сеанса, отправлять команды и управлять таймером.
type handler func(m *machine, ev Event) State

// transitions - таблица переходов: состояние -> тип события -> обработчик.
// Событие, отсутствующее в таблице текущего состояния, молча отбрасывается.
var transitions = map[State]map[EventKind]handler{
	Disconnected: {
		EventConnected:    (*machine).onServerConnect,
		EventConnectError: (*machine).onServerConnectError,
		EventOnHook:       (*machine).onDisconnectedHook,
		EventOffHook:      (*machine).onDisconnectedHook,
	},
	Unregistered: {
		EventRegistered:       (*machine).onRegistered,
		EventServerDisconnect: (*machine).onServerDisconnect,
	},
	RegistrationFailed: {
		EventOnHook:  (*machine).onDisconnectedHook,
		EventOffHook: (*machine).onDisconnectedHook,
	},
	OnHookIdle: {
		EventOffHook:          (*machine).onOffHook,
		EventCallRequest:      (*machine).onIncomingCall,
		EventServerDisconnect: (*machine).onServerDisconnect,
	},
	OffHookDialing: {
		EventOnHook:           (*machine).onOnHook,
		EventDigitPressed:     (*machine).onDigitPressed,
		EventCallRequest:      (*machine).onCallRequestWhileBusy,
		EventServerDisconnect: (*machine).onServerDisconnect,
	},
	InitOutgoingCall: {
		EventOnHook:             (*machine).onOnHook,
		EventCalleeBusy:         (*machine).onCalleeBusy,
		EventCalleeNotAvailable: (*machine).onCallNotAvailable,
		EventCallTimeout:        (*machine).onCallNotAvailable,
		EventCalleeRinging:      (*machine).onCalleeRinging,
		EventCallConnected:      (*machine).onCallConnected,
		EventCallRequest:        (*machine).onCallRequestWhileBusy,
		EventServerDisconnect:   (*machine).onServerDisconnect,
	},
	CallBusy: {
		EventOnHook:           (*machine).onOnHook,
		EventCallRequest:      (*machine).onCallRequestWhileBusy,
		EventServerDisconnect: (*machine).onServerDisconnect,
	},
	CallNotAvailable: {
		EventOnHook:           (*machine).onOnHook,
		EventCallRequest:      (*machine).onCallRequestWhileBusy,
		EventServerDisconnect: (*machine).onServerDisconnect,
	},
	OutgoingCallRinging: {
		EventOnHook:             (*machine).onOnHook,
		EventCallConnected:      (*machine).onCallConnected,
		EventCallTimeout:        (*machine).onCallNotAvailable,
		EventCalleeNotAvailable: (*machine).onCallNotAvailable,
		EventCallRequest:        (*machine).onCallRequestWhileBusy,
		EventServerDisconnect:   (*machine).onServerDisconnect,
	},
	CallConnected: {
		EventOnHook:           (*machine).onOnHook,
		EventOutgoingTalk:     (*machine).onOutgoingTalk,
		EventIncomingTalk:     (*machine).onIncomingTalk,
		EventCallEnded:        (*machine).onCallEnded,
		EventCallRequest:      (*machine).onCallRequestWhileBusy,
		EventServerDisconnect: (*machine).onServerDisconnect,
	},
	CallEnded: {
		EventOnHook:           (*machine).onOnHook,
		EventCallRequest:      (*machine).onCallRequestWhileBusy,
		EventServerDisconnect: (*machine).onServerDisconnect,
	},
	IncomingCallRinging: {
		EventCallRequest:      (*machine).onCallRequestWhileBusy,
		EventCallTimeout:      (*machine).onIncomingCallTimeout,
		EventOffHook:          (*machine).onIncomingCallAccept,
		EventCallCancelled:    (*machine).onIncomingCallCancelled,
		EventServerDisconnect: (*machine).onServerDisconnect,
	},
	IncomingCallFinalize: {
		EventCallRequest:      (*machine).onCallRequestWhileBusy,
		EventCallConnected:    (*machine).onCallConnected,
		EventCallCancelled:    (*machine).onIncomingCallCancelledWhileOffHook,
		EventServerDisconnect: (*machine).onServerDisconnect,
	},
	InitCallBlocking: {},
}

// lookup ищет обработчик для пары (состояние, событие)
func lookup(state State, kind EventKind) (handler, bool) {
	h, ok := transitions[state][kind]
	return h, ok
}

// edge - допустимый переход между разными состояниями
type edge struct {
	from, to State
}

/*
Переходы, которые могут вернуть обработчики таблицы transitions.
По этому списку строится looplab/fsm, события называются formEventName(src, dst).

[Disconnected] → [Unregistered] → [OnHookIdle] ⇄ [OffHookDialing] → [InitOutgoingCall]
[InitOutgoingCall] → [OutgoingCallRinging] → [CallConnected] → [CallEnded] → [OnHookIdle]
[InitOutgoingCall] → [CallBusy] | [CallNotAvailable] → [OnHookIdle]
[OnHookIdle] → [IncomingCallRinging] → [IncomingCallFinalize] → [CallConnected]
[Disconnected] → [RegistrationFailed]
[OffHookDialing] → [InitCallBlocking]
Из любого состояния со связью: → [Disconnected]
*/
var transitionEdges = []edge{
	{Disconnected, Unregistered},
	{Disconnected, RegistrationFailed},

	{Unregistered, OnHookIdle},
	{Unregistered, OffHookDialing},
	{Unregistered, Disconnected},

	{OnHookIdle, OffHookDialing},
	{OnHookIdle, IncomingCallRinging},
	{OnHookIdle, Disconnected},

	{OffHookDialing, OnHookIdle},
	{OffHookDialing, InitOutgoingCall},
	{OffHookDialing, InitCallBlocking},
	{OffHookDialing, Disconnected},

	{InitOutgoingCall, OnHookIdle},
	{InitOutgoingCall, CallBusy},
	{InitOutgoingCall, CallNotAvailable},
	{InitOutgoingCall, OutgoingCallRinging},
	{InitOutgoingCall, CallConnected},
	{InitOutgoingCall, Disconnected},

	{CallBusy, OnHookIdle},
	{CallBusy, Disconnected},

	{CallNotAvailable, OnHookIdle},
	{CallNotAvailable, Disconnected},

	{OutgoingCallRinging, OnHookIdle},
	{OutgoingCallRinging, CallConnected},
	{OutgoingCallRinging, CallNotAvailable},
	{OutgoingCallRinging, Disconnected},

	{CallConnected, OnHookIdle},
	{CallConnected, CallEnded},
	{CallConnected, Disconnected},

	{CallEnded, OnHookIdle},
	{CallEnded, Disconnected},

	{IncomingCallRinging, OnHookIdle},
	{IncomingCallRinging, IncomingCallFinalize},
	{IncomingCallRinging, Disconnected},

	{IncomingCallFinalize, CallConnected},
	{IncomingCallFinalize, CallNotAvailable},
	{IncomingCallFinalize, Disconnected},
}

func formEventName(src, dst State) string {
	builder := strings.Builder{}
	builder.WriteString(string(src))
	builder.WriteString("_to_")
	builder.WriteString(string(dst))
	return builder.String()
}
