package phone

import (
	"fmt"
	"strings"
)

const (
	notConnectedMessage = "Not connected to server"
	connectedPrefix     = "Connected to "
)

// sessionContext - изменяемое состояние сеанса.
// Принадлежит циклу событий, из других горутин не читается.
type sessionContext struct {
	endpointNumber      string
	onHook              bool
	sound               Sound
	dialedDigits        string
	dialogue            []string
	pendingHangupNotify bool
	ringTimer           *TimerHandle
}

func newSessionContext(number string) sessionContext {
	return sessionContext{
		endpointNumber: number,
		onHook:         true,
		sound:          SoundSilent,
		dialogue:       []string{notConnectedMessage},
	}
}

func (c *sessionContext) setMessage(msg string) {
	c.dialogue = []string{msg}
}

func (c *sessionContext) clearDialogue() {
	c.dialogue = nil
}

func (c *sessionContext) appendLine(speaker, text string) {
	c.dialogue = append(c.dialogue, fmt.Sprintf("%s : %s", speaker, text))
}

// dropConnectedHeader убирает строку "Connected to ..." из начала разговора
func (c *sessionContext) dropConnectedHeader() {
	if len(c.dialogue) > 0 && strings.HasPrefix(c.dialogue[0], connectedPrefix) {
		c.dialogue = c.dialogue[1:]
	}
	if len(c.dialogue) == 0 {
		c.dialogue = nil
	}
}

// cancelRingTimer отменяет таймер вызова, если он есть
func (c *sessionContext) cancelRingTimer() {
	if c.ringTimer != nil {
		c.ringTimer.Cancel()
		c.ringTimer = nil
	}
}

// Snapshot - неизменяемая копия состояния аппарата для наблюдателей.
type Snapshot struct {
	State          State
	EndpointNumber string
	OnHook         bool
	Sound          Sound
	DialedDigits   string
	Dialogue       []string
	PendingHangup  bool
	RingTimerArmed bool
}

func (c *sessionContext) snapshot(state State) *Snapshot {
	var dialogue []string
	if c.dialogue != nil {
		dialogue = make([]string, len(c.dialogue))
		copy(dialogue, c.dialogue)
	}
	return &Snapshot{
		State:          state,
		EndpointNumber: c.endpointNumber,
		OnHook:         c.onHook,
		Sound:          c.sound,
		DialedDigits:   c.dialedDigits,
		Dialogue:       dialogue,
		PendingHangup:  c.pendingHangupNotify,
		RingTimerArmed: c.ringTimer != nil,
	}
}

// HasDialogue сообщает, есть ли что показать в области разговора
func (s Snapshot) HasDialogue() bool {
	return s.Dialogue != nil
}

// DialogueText возвращает разговор или статусное сообщение одной строкой.
func (s Snapshot) DialogueText() string {
	return strings.Join(s.Dialogue, "\n")
}

// StatusLine формирует строку состояния в том виде, в каком ее показывает интерфейс:
//
//	1234: On hook (No sound)
//	1234: Off hook (Playing dial tone).  Dialing 22
func (s Snapshot) StatusLine() string {
	if s.OnHook {
		return fmt.Sprintf("%s: On hook (%s)", s.EndpointNumber, s.Sound)
	}
	return fmt.Sprintf("%s: Off hook (%s).  Dialing %s", s.EndpointNumber, s.Sound, s.DialedDigits)
}
