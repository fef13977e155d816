package exchange

import "context"

// Conn - установленное соединение со станцией.
// ReadMessage вызывается из одной горутины, WriteMessage из другой.
// Close прерывает заблокированный ReadMessage.
type Conn interface {
	ReadMessage() (Message, error)
	WriteMessage(msg Message) error
	Close() error
}

// Dialer устанавливает соединение со станцией от имени номера number
type Dialer interface {
	Dial(ctx context.Context, number string) (Conn, error)
}
