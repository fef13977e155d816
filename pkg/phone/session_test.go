package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want string
	}{
		{
			name: "трубка лежит",
			snap: Snapshot{EndpointNumber: "1234", OnHook: true, Sound: SoundSilent},
			want: "1234: On hook (No sound)",
		},
		{
			name: "звонок",
			snap: Snapshot{EndpointNumber: "1234", OnHook: true, Sound: SoundRinging},
			want: "1234: On hook (Ringing)",
		},
		{
			name: "набор номера",
			snap: Snapshot{EndpointNumber: "1234", Sound: SoundDialTone, DialedDigits: "22"},
			want: "1234: Off hook (Playing dial tone).  Dialing 22",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snap.StatusLine())
		})
	}
}

func TestDropConnectedHeader(t *testing.T) {
	c := newSessionContext("1111")
	c.setMessage("Connected to 123456")
	c.appendLine("1111", "hello")

	c.dropConnectedHeader()
	assert.Equal(t, []string{"1111 : hello"}, c.dialogue)

	// строка без заголовка не трогается
	c.dropConnectedHeader()
	assert.Equal(t, []string{"1111 : hello"}, c.dialogue)
}

func TestSnapshotIsCopy(t *testing.T) {
	c := newSessionContext("1111")
	snap := c.snapshot(Disconnected)

	c.appendLine("1111", "x")
	assert.Equal(t, []string{"Not connected to server"}, snap.Dialogue)
	assert.True(t, snap.HasDialogue())

	c.clearDialogue()
	assert.False(t, c.snapshot(OnHookIdle).HasDialogue())
}
