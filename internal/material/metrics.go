package material

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	kindRoot = "root"
	kindSub  = "sub"

	lookupID   = "id"
	lookupName = "name"
)

// Metrics Prometheus-метрики реестра материалов. nil *Metrics допустим и
// ничего не делает.
type Metrics struct {
	registrations *prometheus.CounterVec
	conflicts     prometheus.Counter
	roots         prometheus.Gauge
	misses        *prometheus.CounterVec
}

// NewMetrics создает метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "material_registry",
			Name:      "registrations_total",
			Help:      "Успешные регистрации материалов по виду (root/sub).",
		}, []string{"kind"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "material_registry",
			Name:      "conflicts_total",
			Help:      "Регистрации, отклоненные из-за занятого id или данных.",
		}),
		roots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "material_registry",
			Name:      "root_materials",
			Help:      "Количество занятых слотов таблицы идентификаторов.",
		}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "material_registry",
			Name:      "lookup_misses_total",
			Help:      "Поиски материала, не нашедшие результата.",
		}, []string{"by"}),
	}

	for _, c := range []prometheus.Collector{m.registrations, m.conflicts, m.roots, m.misses} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) registered(kind string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(kind).Inc()
	if kind == kindRoot {
		m.roots.Inc()
	}
}

func (m *Metrics) conflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *Metrics) miss(by string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(by).Inc()
}
