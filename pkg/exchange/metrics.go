package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Направления кадров
const (
	directionIn  = "in"
	directionOut = "out"
)

// MetricsConfig конфигурация метрик адаптера
type MetricsConfig struct {
	Namespace  string
	Subsystem  string
	Registerer prometheus.Registerer
}

// DefaultMetricsConfig возвращает конфигурацию по умолчанию
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Namespace:  "phone",
		Subsystem:  "exchange",
		Registerer: prometheus.DefaultRegisterer,
	}
}

// Metrics - счетчики кадров и соединений со станцией. Методы допускают nil.
type Metrics struct {
	framesTotal   *prometheus.CounterVec
	writeErrors   prometheus.Counter
	connectsTotal *prometheus.CounterVec
}

// NewMetrics создает и регистрирует метрики адаптера
func NewMetrics(config *MetricsConfig) *Metrics {
	if config == nil {
		config = DefaultMetricsConfig()
	}
	factory := promauto.With(config.Registerer)

	return &Metrics{
		framesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "frames_total",
			Help:      "Frames exchanged with the exchange service by direction and event",
		}, []string{"direction", "event"}),
		writeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "write_errors_total",
			Help:      "Frames that could not be written",
		}),
		connectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "connects_total",
			Help:      "Connection attempts by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) frame(direction, event string) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(direction, event).Inc()
}

func (m *Metrics) writeError() {
	if m == nil {
		return
	}
	m.writeErrors.Inc()
}

func (m *Metrics) connect(result string) {
	if m == nil {
		return
	}
	m.connectsTotal.WithLabelValues(result).Inc()
}
