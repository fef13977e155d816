package phone

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingSignaling запоминает команды в порядке отправки
type recordingSignaling struct {
	mu       sync.Mutex
	commands []Command
	closed   int
}

func (r *recordingSignaling) Send(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

func (r *recordingSignaling) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *recordingSignaling) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

func (r *recordingSignaling) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}

func (r *recordingSignaling) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// logBuffer - потокобезопасный приемник логов
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *logBuffer) {
	buf := &logBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, buf
}

// assertNoErrorLogs проверяет, что в логе нет записей уровня ERROR
func assertNoErrorLogs(t *testing.T, buf *logBuffer) {
	t.Helper()
	for _, line := range strings.Split(buf.String(), "\n") {
		assert.NotContains(t, line, "level=ERROR", "unexpected error log")
	}
}

// testMachine - ядро без цикла событий; поставленные события копятся в enqueued
type testMachine struct {
	*machine
	sig      *recordingSignaling
	enqueued []Event
	logs     *logBuffer
}

func newTestMachine(t *testing.T, ringTimeout time.Duration) *testMachine {
	t.Helper()
	logger, logs := newTestLogger()
	tm := &testMachine{sig: &recordingSignaling{}, logs: logs}
	tm.machine = newMachine("", tm.sig, NewTimerManager(nil), func(ev Event) bool {
		tm.enqueued = append(tm.enqueued, ev)
		return true
	}, ringTimeout, logger, nil)
	t.Cleanup(func() { tm.session.cancelRingTimer() })
	return tm
}

// force переводит ядро в состояние без обработчиков
func (tm *testMachine) force(state State) {
	tm.state = state
	tm.fsm.SetState(string(state))
}

func (tm *testMachine) apply(kind EventKind, payload string) bool {
	return tm.handle(NewEvent(kind, payload))
}

func (tm *testMachine) dial(digits string) {
	for _, d := range digits {
		tm.apply(EventDigitPressed, string(d))
	}
}

// registered доводит ядро до OnHookIdle с номером 1111
func (tm *testMachine) registered() {
	tm.apply(EventConnected, "")
	tm.apply(EventRegistered, "1111")
}

// allEventKinds - события, которые может получить таблица переходов
var allEventKinds = []EventKind{
	EventConnected,
	EventConnectError,
	EventServerDisconnect,
	EventRegistered,
	EventCallRequest,
	EventCalleeRinging,
	EventCalleeBusy,
	EventCalleeNotAvailable,
	EventCallTimeout,
	EventCallCancelled,
	EventCallConnected,
	EventCallEnded,
	EventIncomingTalk,
	EventOutgoingTalk,
	EventDigitPressed,
	EventOnHook,
	EventOffHook,
}

// countingObserver считает уведомления
type countingObserver struct {
	mu    sync.Mutex
	calls int
}

func (o *countingObserver) StateChanged() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
}

func (o *countingObserver) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}
