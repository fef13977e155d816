package phone

import "fmt"

// CommandKind - тип исходящей команды станции.
type CommandKind string

const (
	CommandMakeCall              CommandKind = "make-call"
	CommandHangUp                CommandKind = "hang-up"
	CommandCallAccepted          CommandKind = "call-accepted"
	CommandCallAcknowledged      CommandKind = "call-acknowledged"
	CommandCallRefused           CommandKind = "call-refused"
	CommandTalk                  CommandKind = "talk"
	CommandCallBlockingCheckAuth CommandKind = "call-blocking-check-auth"
)

// Причины отказа от входящего вызова
const (
	RefuseBusy    = "busy"
	RefuseTimeout = "timeout"
)

func (k CommandKind) String() string {
	return string(k)
}

// Command - команда, которую автомат отправляет станции.
// Заполнены только поля, нужные для данного типа.
type Command struct {
	Kind   CommandKind
	Number string
	Reason string
	Text   string
}

func (c Command) String() string {
	switch c.Kind {
	case CommandMakeCall, CommandCallAcknowledged:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Number)
	case CommandCallRefused:
		return fmt.Sprintf("%s(%s, %s)", c.Kind, c.Number, c.Reason)
	case CommandTalk:
		return fmt.Sprintf("%s(%q)", c.Kind, c.Text)
	default:
		return string(c.Kind)
	}
}

func makeCall(number string) Command {
	return Command{Kind: CommandMakeCall, Number: number}
}

func hangUp() Command {
	return Command{Kind: CommandHangUp}
}

func callAccepted() Command {
	return Command{Kind: CommandCallAccepted}
}

func callAcknowledged(number string) Command {
	return Command{Kind: CommandCallAcknowledged, Number: number}
}

func callRefused(number, reason string) Command {
	return Command{Kind: CommandCallRefused, Number: number, Reason: reason}
}

func talk(text string) Command {
	return Command{Kind: CommandTalk, Text: text}
}

func callBlockingCheckAuth() Command {
	return Command{Kind: CommandCallBlockingCheckAuth}
}

// Signaling - исходящая сторона канала до станции.
//
// Send вызывается из цикла событий и не должен блокироваться:
// команды ставятся в очередь и уходят в порядке вызовов.
// Close вызывается один раз после обработки shutdown.
type Signaling interface {
	Send(cmd Command)
	Close() error
}

type discardSignaling struct{}

func (discardSignaling) Send(Command) {}
func (discardSignaling) Close() error { return nil }
