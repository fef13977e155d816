// Package phone реализует клиентскую сторону телефонного аппарата
// упрощенного протокола сигнализации с коммутацией каналов.
//
// Ядро пакета - конечный автомат аппарата и цикл сериализации событий.
// Все изменения состояния (уведомления станции, действия пользователя,
// срабатывание таймера вызова) попадают в одну FIFO очередь и
// обрабатываются строго по одному в горутине Run. Производители
// событий никогда не трогают состояние напрямую, поэтому блокировки
// на состоянии аппарата не нужны.
//
// Пример использования:
//
//	adapter := exchange.NewAdapter(dialer, "1234")
//	p := phone.New(adapter, phone.WithLogger(logger))
//	adapter.Start(ctx, p)
//	go p.Run(ctx)
//
//	p.GoOffHook()
//	for _, d := range "2222" {
//	    p.PressDigit(d)
//	}
//
// Наблюдатели (например, терминальный интерфейс) регистрируются через
// RegisterObserver и после каждого обработанного события получают
// StateChanged, после чего читают текущее состояние через Snapshot.
package phone
