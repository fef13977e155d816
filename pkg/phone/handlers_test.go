package phone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longRing = time.Hour

// TestUnmappedEventsLeaveStateUnchanged проверяет, что событие без обработчика
// не меняет ни состояние, ни контекст сеанса
func TestUnmappedEventsLeaveStateUnchanged(t *testing.T) {
	for _, state := range States() {
		for _, kind := range allEventKinds {
			if _, ok := lookup(state, kind); ok {
				continue
			}
			tm := newTestMachine(t, longRing)
			tm.force(state)
			before := tm.snapshot()

			handled := tm.apply(kind, "1")

			assert.False(t, handled, "%s/%s", state, kind)
			assert.Equal(t, before, tm.snapshot(), "%s/%s", state, kind)
			assert.Empty(t, tm.sig.Commands(), "%s/%s", state, kind)
			assert.Empty(t, tm.enqueued, "%s/%s", state, kind)
		}
	}
}

// TestTransitionsMatchEdges прогоняет каждый обработчик таблицы и проверяет,
// что результирующий переход описан в автомате
func TestTransitionsMatchEdges(t *testing.T) {
	for state, events := range transitions {
		for kind := range events {
			tm := newTestMachine(t, longRing)
			tm.force(state)

			require.True(t, tm.apply(kind, "1234"), "%s/%s", state, kind)
			assert.Equal(t, string(tm.state), tm.fsm.Current(), "%s/%s", state, kind)
			assert.NotContains(t, tm.logs.String(), "переход отсутствует", "%s/%s", state, kind)
		}
	}
}

// TestHookTogglesWhileDisconnected проверяет, что без связи меняется только положение трубки
func TestHookTogglesWhileDisconnected(t *testing.T) {
	for _, state := range []State{Disconnected, RegistrationFailed} {
		tm := newTestMachine(t, longRing)
		tm.force(state)

		tm.apply(EventOffHook, "")
		assert.Equal(t, state, tm.state)
		assert.False(t, tm.session.onHook)

		tm.apply(EventOnHook, "")
		assert.Equal(t, state, tm.state)
		assert.True(t, tm.session.onHook)
		assert.Empty(t, tm.sig.Commands())
	}
}

func TestRegistration(t *testing.T) {
	tests := []struct {
		name      string
		offHook   bool
		payload   string
		wantState State
		wantSound Sound
		wantNum   string
	}{
		{name: "трубка лежит", wantState: OnHookIdle, wantSound: SoundSilent, payload: "1111", wantNum: "1111"},
		{name: "трубка снята", offHook: true, wantState: OffHookDialing, wantSound: SoundDialTone, payload: "2222", wantNum: "2222"},
		{name: "пустой номер", wantState: OnHookIdle, wantSound: SoundSilent, wantNum: "9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := newTestMachine(t, longRing)
			tm.session.endpointNumber = "9999"
			if tt.offHook {
				tm.apply(EventOffHook, "")
			}

			tm.apply(EventConnected, "")
			assert.Equal(t, Unregistered, tm.state)
			assert.Nil(t, tm.session.dialogue, "dialogue is cleared on connect")

			tm.apply(EventRegistered, tt.payload)
			assert.Equal(t, tt.wantState, tm.state)
			assert.Equal(t, tt.wantSound, tm.session.sound)
			assert.Equal(t, tt.wantNum, tm.session.endpointNumber)
			assert.False(t, tm.session.pendingHangupNotify)
			assert.Empty(t, tm.session.dialedDigits)
		})
	}
}

func TestConnectError(t *testing.T) {
	tm := newTestMachine(t, longRing)

	tm.apply(EventConnectError, "connection refused")

	assert.Equal(t, RegistrationFailed, tm.state)
	assert.Equal(t, SoundSilent, tm.session.sound)
	assert.Equal(t, []string{
		"An error occurred (connection refused).  Please contact your systems administrator for assistance.",
	}, tm.session.dialogue)
	require.Len(t, tm.enqueued, 1)
	assert.Equal(t, EventShutdown, tm.enqueued[0].Kind)
}

func TestServerDisconnect(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventCallRequest, "5555")
	require.NotNil(t, tm.session.ringTimer)
	timer := tm.session.ringTimer

	tm.apply(EventServerDisconnect, "")

	assert.Equal(t, Disconnected, tm.state)
	assert.False(t, tm.state.IsConnected())
	assert.Equal(t, SoundSilent, tm.session.sound)
	assert.Equal(t, []string{"Not connected to server"}, tm.session.dialogue)
	assert.Nil(t, tm.session.ringTimer)
	assert.False(t, timer.Fired())
	assert.Equal(t, int64(1), tm.timers.Stats().Cancelled)
}

// TestIsConnected проверяет, что разрыв связи обрабатывают только состояния со связью
func TestIsConnected(t *testing.T) {
	for _, state := range States() {
		if _, ok := lookup(state, EventServerDisconnect); ok {
			assert.True(t, state.IsConnected(), state)
		}
		if _, ok := lookup(state, EventConnected); ok {
			assert.False(t, state.IsConnected(), state)
		}
	}
	assert.False(t, RegistrationFailed.IsConnected())
	assert.True(t, InitCallBlocking.IsConnected())
}

// TestShortDialNeverCalls проверяет, что менее четырех цифр не начинают вызов
func TestShortDialNeverCalls(t *testing.T) {
	for _, digits := range []string{"", "1", "12", "123", "*1", "#7", "1*2"} {
		tm := newTestMachine(t, longRing)
		tm.registered()
		tm.apply(EventOffHook, "")
		tm.sig.Reset()

		tm.dial(digits)

		assert.Equal(t, OffHookDialing, tm.state, digits)
		assert.Equal(t, digits, tm.session.dialedDigits)
		assert.Empty(t, tm.sig.Commands(), digits)
	}
}

func TestDialRules(t *testing.T) {
	tests := []struct {
		name       string
		digits     string
		wantState  State
		wantDialed string
		wantCmd    Command
	}{
		{name: "четыре цифры", digits: "2222", wantState: InitOutgoingCall, wantDialed: "2222", wantCmd: makeCall("2222")},
		{name: "последние четыре цифры", digits: "*1234", wantState: InitOutgoingCall, wantDialed: "1234", wantCmd: makeCall("1234")},
		{name: "блокировка вызовов", digits: "#70", wantState: InitCallBlocking, wantDialed: "#70", wantCmd: callBlockingCheckAuth()},
		{name: "блокировка после цифры", digits: "1#70", wantState: InitCallBlocking, wantDialed: "1#70", wantCmd: callBlockingCheckAuth()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := newTestMachine(t, longRing)
			tm.registered()
			tm.apply(EventOffHook, "")
			tm.sig.Reset()

			tm.dial(tt.digits)

			assert.Equal(t, tt.wantState, tm.state)
			assert.Equal(t, tt.wantDialed, tm.session.dialedDigits)
			assert.Equal(t, SoundSilent, tm.session.sound)
			assert.Equal(t, []Command{tt.wantCmd}, tm.sig.Commands())
			assertNoErrorLogs(t, tm.logs)
		})
	}
}

// TestCallBlockingAcceptsNothing проверяет, что InitCallBlocking не обрабатывает события
func TestCallBlockingAcceptsNothing(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventOffHook, "")
	tm.dial("#70")
	tm.sig.Reset()

	for _, kind := range allEventKinds {
		assert.False(t, tm.apply(kind, ""), kind)
	}
	assert.Equal(t, InitCallBlocking, tm.state)
	assert.Empty(t, tm.sig.Commands())
}

func TestMakeCallSetsHangupFlag(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventOffHook, "")
	tm.dial("2222")
	require.True(t, tm.session.pendingHangupNotify)
	tm.sig.Reset()

	tm.apply(EventOnHook, "")
	assert.Equal(t, []Command{hangUp()}, tm.sig.Commands())
	assert.False(t, tm.session.pendingHangupNotify)

	// повторный on-hook ничего не отправляет
	tm.apply(EventOffHook, "")
	tm.apply(EventOnHook, "")
	assert.Equal(t, []Command{hangUp()}, tm.sig.Commands())
}

func TestCalleeBusy(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventOffHook, "")
	tm.dial("2222")
	tm.sig.Reset()

	tm.apply(EventCalleeBusy, "")
	assert.Equal(t, CallBusy, tm.state)
	assert.Equal(t, SoundBusy, tm.session.sound)

	tm.apply(EventOnHook, "")
	assert.Equal(t, OnHookIdle, tm.state)
	assert.Empty(t, tm.sig.Commands())
}

func TestCalleeNotAvailable(t *testing.T) {
	for _, kind := range []EventKind{EventCalleeNotAvailable, EventCallTimeout} {
		for _, ring := range []bool{false, true} {
			tm := newTestMachine(t, longRing)
			tm.registered()
			tm.apply(EventOffHook, "")
			tm.dial("2222")
			if ring {
				tm.apply(EventCalleeRinging, "")
				require.Equal(t, OutgoingCallRinging, tm.state)
			}

			tm.apply(kind, "")
			assert.Equal(t, CallNotAvailable, tm.state, kind)
			assert.Equal(t, SoundFastBusy, tm.session.sound)
			assert.False(t, tm.session.pendingHangupNotify)
		}
	}
}

// TestOutgoingCallScenario - полный исходящий вызов с разговором
func TestOutgoingCallScenario(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.sig.Reset()

	tm.apply(EventOffHook, "")
	tm.dial("2222")
	tm.apply(EventCalleeRinging, "")
	assert.Equal(t, SoundRinging, tm.session.sound)

	tm.apply(EventCallConnected, "")
	assert.Equal(t, CallConnected, tm.state)
	assert.Equal(t, SoundCallAudio, tm.session.sound)
	assert.Equal(t, []string{"Connected to 2222"}, tm.session.dialogue)

	tm.apply(EventOutgoingTalk, "hi")
	tm.apply(EventIncomingTalk, "yo")
	assert.Equal(t, []string{"Connected to 2222", "1111 : hi", "2222 : yo"}, tm.session.dialogue)

	tm.apply(EventOnHook, "")
	assert.Equal(t, OnHookIdle, tm.state)
	assert.Nil(t, tm.session.dialogue)
	assert.Equal(t, []Command{
		makeCall("2222"),
		callAccepted(),
		talk("hi"),
		hangUp(),
	}, tm.sig.Commands())
	assertNoErrorLogs(t, tm.logs)
}

// TestCallConnectedWithoutRinging проверяет, что call-accepted отправляется
// только из OutgoingCallRinging
func TestCallConnectedWithoutRinging(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventOffHook, "")
	tm.dial("2222")
	tm.sig.Reset()

	tm.apply(EventCallConnected, "")
	assert.Equal(t, CallConnected, tm.state)
	assert.Empty(t, tm.sig.Commands())
}

func TestCallEndedByRemote(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventOffHook, "")
	tm.dial("1234")
	tm.apply(EventCalleeRinging, "")
	tm.apply(EventCallConnected, "")
	tm.apply(EventOutgoingTalk, "Hello, 1234!")
	tm.apply(EventIncomingTalk, "I can't talk now")
	tm.sig.Reset()

	tm.apply(EventCallEnded, "")
	assert.Equal(t, CallEnded, tm.state)
	assert.Equal(t, SoundSilent, tm.session.sound)
	assert.False(t, tm.session.pendingHangupNotify)
	assert.Equal(t, []string{"1111 : Hello, 1234!", "1234 : I can't talk now"}, tm.session.dialogue)

	tm.apply(EventOnHook, "")
	assert.Equal(t, OnHookIdle, tm.state)
	assert.Empty(t, tm.sig.Commands())
}

func TestCallEndedWithoutTalk(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventOffHook, "")
	tm.dial("1234")
	tm.apply(EventCallConnected, "")

	tm.apply(EventCallEnded, "")
	assert.Nil(t, tm.session.dialogue)
}

func TestIncomingCallAccepted(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.sig.Reset()

	tm.apply(EventCallRequest, "5555")
	assert.Equal(t, IncomingCallRinging, tm.state)
	assert.Equal(t, SoundRinging, tm.session.sound)
	assert.Equal(t, "5555", tm.session.dialedDigits)
	require.NotNil(t, tm.session.ringTimer)

	tm.apply(EventOffHook, "")
	assert.Equal(t, IncomingCallFinalize, tm.state)
	assert.Nil(t, tm.session.ringTimer)
	assert.True(t, tm.session.pendingHangupNotify)
	assert.False(t, tm.session.onHook)
	assert.Equal(t, SoundCallAudio, tm.session.sound)

	tm.apply(EventCallConnected, "")
	assert.Equal(t, CallConnected, tm.state)
	assert.Equal(t, []string{"Connected to 5555"}, tm.session.dialogue)

	tm.apply(EventOnHook, "")
	assert.Equal(t, []Command{
		callAcknowledged("5555"),
		callAccepted(),
		hangUp(),
	}, tm.sig.Commands())
	assert.Equal(t, int64(1), tm.timers.Stats().Cancelled)
}

// TestIncomingCallCancelledBeforeAnswer проверяет, что отмена вызова не порождает отказ
func TestIncomingCallCancelledBeforeAnswer(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventCallRequest, "5555")
	tm.sig.Reset()

	tm.apply(EventCallCancelled, "")

	assert.Equal(t, OnHookIdle, tm.state)
	assert.Nil(t, tm.session.ringTimer)
	assert.Equal(t, SoundSilent, tm.session.sound)
	assert.False(t, tm.session.pendingHangupNotify)
	assert.Empty(t, tm.sig.Commands())
}

func TestIncomingCallCancelledAfterAnswer(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventCallRequest, "5555")
	tm.apply(EventOffHook, "")

	tm.apply(EventCallCancelled, "")
	assert.Equal(t, CallNotAvailable, tm.state)
	assert.Equal(t, SoundFastBusy, tm.session.sound)
	assert.False(t, tm.session.pendingHangupNotify)
}

// TestIncomingCallTimeout - вызов не принят до срабатывания таймера
func TestIncomingCallTimeout(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.sig.Reset()
	tm.apply(EventCallRequest, "5555")
	id := tm.session.ringTimer.ID()

	tm.handle(Event{Kind: EventCallTimeout, timerID: id})

	assert.Equal(t, OnHookIdle, tm.state)
	assert.Nil(t, tm.session.ringTimer)
	assert.Empty(t, tm.session.dialedDigits)
	assert.Equal(t, []Command{
		callAcknowledged("5555"),
		callRefused("5555", RefuseTimeout),
	}, tm.sig.Commands())
}

// TestStaleRingTimeoutIgnored проверяет, что таймаут чужого таймера отбрасывается
func TestStaleRingTimeoutIgnored(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventCallRequest, "5555")
	tm.apply(EventCallCancelled, "")
	tm.apply(EventCallRequest, "6666")
	tm.sig.Reset()

	tm.handle(Event{Kind: EventCallTimeout, timerID: tm.session.ringTimer.ID() - 1})

	assert.Equal(t, IncomingCallRinging, tm.state)
	assert.NotNil(t, tm.session.ringTimer)
	assert.Empty(t, tm.sig.Commands())

	// таймаут после выхода из IncomingCallRinging - промах таблицы
	tm.apply(EventCallCancelled, "")
	assert.False(t, tm.handle(Event{Kind: EventCallTimeout, timerID: 2}))
	assert.Equal(t, OnHookIdle, tm.state)
}

// TestCallRequestWhileBusy проверяет отказ во всех занятых состояниях
func TestCallRequestWhileBusy(t *testing.T) {
	busy := []State{
		OffHookDialing, InitOutgoingCall, CallBusy, CallNotAvailable, OutgoingCallRinging,
		CallConnected, CallEnded, IncomingCallRinging, IncomingCallFinalize,
	}
	for _, state := range busy {
		tm := newTestMachine(t, longRing)
		tm.force(state)
		before := tm.snapshot()

		tm.apply(EventCallRequest, "7777")

		assert.Equal(t, state, tm.state)
		assert.Equal(t, before, tm.snapshot())
		assert.Equal(t, []Command{callRefused("7777", RefuseBusy)}, tm.sig.Commands(), state)
	}
}

func TestIncomingFinalizeIgnoresOnHook(t *testing.T) {
	tm := newTestMachine(t, longRing)
	tm.registered()
	tm.apply(EventCallRequest, "5555")
	tm.apply(EventOffHook, "")

	assert.False(t, tm.apply(EventOnHook, ""))
	assert.Equal(t, IncomingCallFinalize, tm.state)
}
