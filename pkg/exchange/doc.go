// Package exchange связывает аппарат со станцией коммутации.
//
// Станция и аппарат обмениваются именованными событиями в текстовых
// JSON кадрах вида
//
//	{"event": "call_request", "args": ["5555"]}
//
// Adapter переводит входящие кадры в события phone.Event, а команды
// phone.Command в исходящие кадры. Транспорт скрыт за интерфейсами
// Dialer и Conn: WebSocketDialer работает поверх gorilla/websocket,
// пакет mockExchange предоставляет in-memory станцию для тестов.
//
// Формат кадров собственный и не совместим с socket.io.
//
// Пример использования:
//
//	dialer, err := exchange.NewWebSocketDialer(exchange.WebSocketConfig{
//	    URL:              "https://localhost:5000",
//	    HandshakeTimeout: 10 * time.Second,
//	})
//	adapter := exchange.NewAdapter(dialer, "1234", exchange.WithLogger(logger))
//	p := phone.New(adapter)
//	adapter.Start(ctx, p)
package exchange
