package pager

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	PagesMapped    prometheus.Counter
	FaultsServiced prometheus.Counter
	Fragmentation  *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PagesMapped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lazycorn_pages_mapped_total",
			Help: "Total number of segment pages mapped on demand",
		}),
		FaultsServiced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lazycorn_faults_serviced_total",
			Help: "Total number of page faults serviced by the pager",
		}),
		Fragmentation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lazycorn_fragmentation_bytes",
			Help: "Internal fragmentation of a loadable segment if fully mapped",
		}, []string{"segment"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.PagesMapped,
			m.FaultsServiced,
			m.Fragmentation,
		)
	}
	return m
}

func (m *Metrics) observe(segment int, frag uint64) {
	m.PagesMapped.Inc()
	m.FaultsServiced.Inc()
	m.Fragmentation.WithLabelValues(strconv.Itoa(segment)).Set(float64(frag))
}

// WriteTextfile dumps everything registered on g in text exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
