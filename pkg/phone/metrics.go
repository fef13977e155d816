package phone

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig конфигурация метрик аппарата
type MetricsConfig struct {
	// Namespace префикс для Prometheus метрик
	Namespace string

	// Registerer куда регистрировать метрики. При nil метрики не регистрируются
	Registerer prometheus.Registerer
}

// DefaultMetricsConfig возвращает конфигурацию по умолчанию
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Namespace:  "phone",
		Registerer: prometheus.DefaultRegisterer,
	}
}

// Metrics собирает Prometheus метрики цикла событий.
// Все методы допускают nil получатель.
type Metrics struct {
	eventsTotal      *prometheus.CounterVec
	eventsIgnored    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	commandsTotal    *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	ringTimersTotal  *prometheus.CounterVec
}

// NewMetrics создает и регистрирует метрики
func NewMetrics(config *MetricsConfig) *Metrics {
	if config == nil {
		config = DefaultMetricsConfig()
	}
	factory := promauto.With(config.Registerer)

	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "events_total",
			Help:      "Total number of events processed by the phone event loop",
		}, []string{"kind"}),
		eventsIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "events_ignored_total",
			Help:      "Events without a handler in the current state",
		}, []string{"state", "kind"}),
		transitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "transitions_total",
			Help:      "State transitions of the phone state machine",
		}, []string{"from", "to"}),
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "commands_total",
			Help:      "Commands sent to the exchange",
		}, []string{"command"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "queue_depth",
			Help:      "Events waiting in the event queue",
		}),
		ringTimersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "ring_timers_total",
			Help:      "Ring timer lifecycle by result (armed, fired, cancelled)",
		}, []string{"result"}),
	}
}

func (m *Metrics) event(kind EventKind) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ignored(state State, kind EventKind) {
	if m == nil {
		return
	}
	m.eventsIgnored.WithLabelValues(string(state), string(kind)).Inc()
}

func (m *Metrics) transition(from, to State) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) command(kind CommandKind) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) ringTimer(result string) {
	if m == nil {
		return
	}
	m.ringTimersTotal.WithLabelValues(result).Inc()
}
