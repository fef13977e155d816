package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arzzra/soft_phone/pkg/phone"
)

type recordingPhone struct {
	actions []string
}

func (r *recordingPhone) record(a string) bool {
	r.actions = append(r.actions, a)
	return true
}

func (r *recordingPhone) PressDigit(d rune) bool {
	if !strings.ContainsRune("0123456789*#", d) {
		return false
	}
	return r.record(string(d))
}
func (r *recordingPhone) GoOnHook() bool { return r.record("on") }
func (r *recordingPhone) GoOffHook() bool { return r.record("off") }
func (r *recordingPhone) SendTalk(text string) bool { return r.record("talk:" + text) }
func (r *recordingPhone) RequestShutdown() bool { return r.record("quit") }

func TestConsoleCommands(t *testing.T) {
	p := &recordingPhone{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	input := "off\n\ndial 22\n22\ntalk hello there\ntalk\nOn\nquit\noff\n"
	runConsole(p, strings.NewReader(input), logger)

	assert.Equal(t, []string{"off", "2", "2", "2", "2", "talk:hello there", "on", "quit"}, p.actions)
}

func TestConsoleEOFShutsDown(t *testing.T) {
	p := &recordingPhone{}
	runConsole(p, strings.NewReader("off"), slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, []string{"off", "quit"}, p.actions)
}

func TestConsoleUnknownKeys(t *testing.T) {
	p := &recordingPhone{}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	assert.True(t, handleConsoleLine(p, "12ab", logger))
	assert.Equal(t, []string{"1", "2"}, p.actions)
	assert.Contains(t, logs.String(), "неизвестная клавиша")
}

func TestStatusPrinter(t *testing.T) {
	var out bytes.Buffer
	p := phone.New(nil, phone.WithNumber("1234"))
	printer := &statusPrinter{phone: p, out: &out}

	printer.StateChanged()
	printer.StateChanged()

	assert.Equal(t, "1234: On hook (No sound)\nNot connected to server\n", out.String())
}
