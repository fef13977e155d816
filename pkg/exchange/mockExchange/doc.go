// Package mockExchange предоставляет in-memory станцию для тестирования
// кода, работающего через exchange.Dialer.
//
// Registry реализует exchange.Dialer: каждый Dial создает пару каналов,
// серверную сторону которой тест получает как *Endpoint и управляет ей
// напрямую - отправляет события станции и читает команды аппарата.
//
// Пример использования:
//
//	registry := mockExchange.NewRegistry()
//	adapter := exchange.NewAdapter(registry, "1234")
//	p := phone.New(adapter)
//	adapter.Start(ctx, p)
//	go p.Run(ctx)
//
//	endpoint, _ := registry.WaitEndpoint(ctx, "1234")
//	endpoint.Emit("registered", "1234")
//	msg, _ := endpoint.Receive(ctx)
package mockExchange
