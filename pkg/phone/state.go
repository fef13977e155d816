package phone

// State - состояние конечного автомата аппарата.
// Значение используется также как имя состояния в looplab/fsm.
type State string

const (
	// Disconnected - нет соединения со станцией (начальное состояние)
	Disconnected State = "Disconnected"
	// Unregistered - соединение установлено, номер еще не назначен
	Unregistered State = "Unregistered"
	// RegistrationFailed - соединиться не удалось, аппарат завершает работу
	RegistrationFailed State = "RegistrationFailed"
	// OnHookIdle - трубка лежит, линия свободна
	OnHookIdle State = "OnHookIdle"
	// OffHookDialing - трубка снята, идет набор номера
	OffHookDialing State = "OffHookDialing"
	// InitOutgoingCall - отправлен make_call, ждем ответа станции
	InitOutgoingCall State = "InitOutgoingCall"
	// CallBusy - вызываемый абонент занят
	CallBusy State = "CallBusy"
	// CallNotAvailable - вызываемый абонент недоступен
	CallNotAvailable State = "CallNotAvailable"
	// OutgoingCallRinging - у вызываемого абонента звонит телефон
	OutgoingCallRinging State = "OutgoingCallRinging"
	// CallConnected - разговор
	CallConnected State = "CallConnected"
	// CallEnded - удаленная сторона положила трубку
	CallEnded State = "CallEnded"
	// IncomingCallRinging - входящий вызов, звонок
	IncomingCallRinging State = "IncomingCallRinging"
	// IncomingCallFinalize - входящий вызов принят, ждем call_connected
	IncomingCallFinalize State = "IncomingCallFinalize"
	// InitCallBlocking - заготовка под блокировку вызовов, событий не принимает
	InitCallBlocking State = "InitCallBlocking"
)

// States возвращает все состояния автомата.
func States() []State {
	return []State{
		Disconnected,
		Unregistered,
		RegistrationFailed,
		OnHookIdle,
		OffHookDialing,
		InitOutgoingCall,
		CallBusy,
		CallNotAvailable,
		OutgoingCallRinging,
		CallConnected,
		CallEnded,
		IncomingCallRinging,
		IncomingCallFinalize,
		InitCallBlocking,
	}
}

func (s State) String() string {
	return string(s)
}

// IsConnected сообщает, установлено ли соединение со станцией в этом состоянии.
func (s State) IsConnected() bool {
	switch s {
	case Disconnected, RegistrationFailed:
		return false
	default:
		return true
	}
}
