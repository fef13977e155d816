package phone

import "fmt"

// Sound - звук, который аппарат воспроизводит в данный момент.
// Используется только для отображения.
type Sound int

const (
	SoundSilent Sound = iota
	SoundRinging
	SoundDialTone
	SoundBusy
	SoundFastBusy
	SoundCallAudio
)

var soundNames = map[Sound]string{
	SoundSilent:    "No sound",
	SoundRinging:   "Ringing",
	SoundDialTone:  "Playing dial tone",
	SoundBusy:      "Playing busy signal",
	SoundFastBusy:  "Playing fast busy signal",
	SoundCallAudio: "Audio connection",
}

// String возвращает текст для интерфейса пользователя
func (s Sound) String() string {
	if name, ok := soundNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(s))
}
