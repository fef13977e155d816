package phone

import (
	"sync/atomic"
	"time"
)

// DefaultRingTimeout - сколько звонит входящий вызов до автоматического отказа
const DefaultRingTimeout = 15 * time.Second

const (
	timerPending int32 = iota
	timerFired
	timerCancelled
)

// TimeoutCallback вызывается из горутины таймера при срабатывании.
// Получает идентификатор сработавшего таймера.
type TimeoutCallback func(id uint64)

// TimerHandle - активный отложенный вызов.
type TimerHandle struct {
	id      uint64
	timer   *time.Timer
	state   atomic.Int32
	manager *TimerManager
}

// ID возвращает идентификатор таймера
func (h *TimerHandle) ID() uint64 {
	if h == nil {
		return 0
	}
	return h.id
}

// Cancel отменяет таймер. Повторный вызов ничего не делает.
// Возвращает true, если отмена случилась раньше срабатывания.
// Если callback уже запущен, он доставит событие, и автомат
// отбросит его как устаревшее.
func (h *TimerHandle) Cancel() bool {
	if h == nil {
		return false
	}
	if !h.state.CompareAndSwap(timerPending, timerCancelled) {
		return false
	}
	h.timer.Stop()
	h.manager.totalCancelled.Add(1)
	h.manager.metrics.ringTimer("cancelled")
	return true
}

// Fired сообщает, сработал ли таймер
func (h *TimerHandle) Fired() bool {
	return h != nil && h.state.Load() == timerFired
}

// TimerManager создает отменяемые отложенные вызовы.
type TimerManager struct {
	nextID atomic.Uint64

	// Счетчики
	totalArmed     atomic.Int64
	totalFired     atomic.Int64
	totalCancelled atomic.Int64

	metrics *Metrics
}

// NewTimerManager создает менеджер таймеров
func NewTimerManager(metrics *Metrics) *TimerManager {
	return &TimerManager{metrics: metrics}
}

// Arm запускает таймер на duration. callback выполняется в отдельной
// горутине и должен только ставить событие в очередь.
func (tm *TimerManager) Arm(duration time.Duration, callback TimeoutCallback) *TimerHandle {
	h := &TimerHandle{
		id:      tm.nextID.Add(1),
		manager: tm,
	}
	h.timer = time.AfterFunc(duration, func() {
		if !h.state.CompareAndSwap(timerPending, timerFired) {
			return
		}
		tm.totalFired.Add(1)
		tm.metrics.ringTimer("fired")
		if callback != nil {
			callback(h.id)
		}
	})
	tm.totalArmed.Add(1)
	tm.metrics.ringTimer("armed")
	return h
}

// TimerStats - счетчики менеджера таймеров
type TimerStats struct {
	Armed     int64
	Fired     int64
	Cancelled int64
}

// Stats возвращает текущие счетчики
func (tm *TimerManager) Stats() TimerStats {
	return TimerStats{
		Armed:     tm.totalArmed.Load(),
		Fired:     tm.totalFired.Load(),
		Cancelled: tm.totalCancelled.Load(),
	}
}
