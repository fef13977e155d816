package phone

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	// featureCallBlocking - код услуги блокировки вызовов
	featureCallBlocking = "#70"
	// numberLength - длина номера, после набора которой начинается вызов
	numberLength = 4
)

// Соединение со станцией

func (m *machine) onServerConnect(Event) State {
	m.session.clearDialogue()
	return Unregistered
}

func (m *machine) onServerConnectError(ev Event) State {
	m.session.sound = SoundSilent
	m.session.setMessage(fmt.Sprintf(
		"An error occurred (%s).  Please contact your systems administrator for assistance.", ev.Payload))
	m.logger.Error("не удалось подключиться к станции", slog.String("reason", ev.Payload))
	m.enqueue(NewEvent(EventShutdown, ""))
	return RegistrationFailed
}

func (m *machine) onServerDisconnect(Event) State {
	m.session.sound = SoundSilent
	m.session.setMessage(notConnectedMessage)
	m.session.cancelRingTimer()
	return Disconnected
}

// onDisconnectedHook запоминает положение трубки, пока нет связи
func (m *machine) onDisconnectedHook(ev Event) State {
	m.session.onHook = ev.Kind == EventOnHook
	return m.state
}

func (m *machine) onRegistered(ev Event) State {
	s := &m.session
	if ev.Payload != "" {
		s.endpointNumber = ev.Payload
	}
	s.dialedDigits = ""
	s.clearDialogue()
	s.pendingHangupNotify = false

	m.logger.Info("аппарат зарегистрирован", slog.String("number", s.endpointNumber))

	if s.onHook {
		s.sound = SoundSilent
		return OnHookIdle
	}
	s.sound = SoundDialTone
	return OffHookDialing
}

// Трубка и набор номера

func (m *machine) onOffHook(Event) State {
	s := &m.session
	s.onHook = false
	s.sound = SoundDialTone
	s.dialedDigits = ""
	s.clearDialogue()
	return OffHookDialing
}

func (m *machine) onOnHook(Event) State {
	s := &m.session
	s.onHook = true
	s.sound = SoundSilent
	s.clearDialogue()

	if s.pendingHangupNotify {
		m.send(hangUp())
		s.pendingHangupNotify = false
	}
	return OnHookIdle
}

func (m *machine) onDigitPressed(ev Event) State {
	s := &m.session
	s.dialedDigits += ev.Payload
	dialed := s.dialedDigits

	if len(dialed) >= len(featureCallBlocking) && strings.HasSuffix(dialed, featureCallBlocking) {
		m.send(callBlockingCheckAuth())
		s.sound = SoundSilent
		return InitCallBlocking
	}

	if len(dialed) >= numberLength {
		number := dialed[len(dialed)-numberLength:]
		if isNumeric(number) {
			s.dialedDigits = number
			m.send(makeCall(number))
			s.sound = SoundSilent
			s.pendingHangupNotify = true
			return InitOutgoingCall
		}
	}
	return m.state
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Исходящий вызов

func (m *machine) onCalleeRinging(Event) State {
	m.session.sound = SoundRinging
	return OutgoingCallRinging
}

func (m *machine) onCalleeBusy(Event) State {
	m.session.sound = SoundBusy
	m.session.pendingHangupNotify = false
	return CallBusy
}

func (m *machine) onCallNotAvailable(Event) State {
	m.session.sound = SoundFastBusy
	m.session.pendingHangupNotify = false
	return CallNotAvailable
}

func (m *machine) onCallConnected(Event) State {
	s := &m.session
	s.setMessage(connectedPrefix + s.dialedDigits)
	s.sound = SoundCallAudio
	if m.state == OutgoingCallRinging {
		m.send(callAccepted())
	}
	return CallConnected
}

// Разговор

func (m *machine) onOutgoingTalk(ev Event) State {
	m.send(talk(ev.Payload))
	m.session.appendLine(m.session.endpointNumber, ev.Payload)
	return m.state
}

func (m *machine) onIncomingTalk(ev Event) State {
	m.session.appendLine(m.session.dialedDigits, ev.Payload)
	return m.state
}

func (m *machine) onCallEnded(Event) State {
	s := &m.session
	s.sound = SoundSilent
	s.dropConnectedHeader()
	s.pendingHangupNotify = false
	return CallEnded
}

// Входящий вызов

func (m *machine) onIncomingCall(ev Event) State {
	s := &m.session
	s.sound = SoundRinging
	s.dialedDigits = ev.Payload
	m.send(callAcknowledged(ev.Payload))
	m.armRingTimer()
	return IncomingCallRinging
}

// onCallRequestWhileBusy отказывает во входящем вызове, если линия занята.
// Вызов не ставится в очередь.
func (m *machine) onCallRequestWhileBusy(ev Event) State {
	m.send(callRefused(ev.Payload, RefuseBusy))
	return m.state
}

func (m *machine) onIncomingCallTimeout(ev Event) State {
	s := &m.session
	if ev.timerID != 0 && ev.timerID != s.ringTimer.ID() {
		m.logger.Debug("устаревший таймаут вызова отброшен",
			slog.Uint64("timer", ev.timerID),
			slog.Uint64("current", s.ringTimer.ID()))
		return m.state
	}

	s.sound = SoundSilent
	m.send(callRefused(s.dialedDigits, RefuseTimeout))
	s.dialedDigits = ""
	s.cancelRingTimer()
	return OnHookIdle
}

func (m *machine) onIncomingCallAccept(Event) State {
	s := &m.session
	s.cancelRingTimer()
	s.onHook = false
	s.pendingHangupNotify = true
	s.sound = SoundCallAudio
	m.send(callAccepted())
	return IncomingCallFinalize
}

func (m *machine) onIncomingCallCancelled(Event) State {
	s := &m.session
	s.cancelRingTimer()
	s.sound = SoundSilent
	s.pendingHangupNotify = false
	return OnHookIdle
}

// onIncomingCallCancelledWhileOffHook - вызывающий положил трубку сразу после того,
// как мы ответили
func (m *machine) onIncomingCallCancelledWhileOffHook(Event) State {
	m.session.sound = SoundFastBusy
	m.session.pendingHangupNotify = false
	return CallNotAvailable
}
