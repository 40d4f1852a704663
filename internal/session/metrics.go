package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	stateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gemmad",
			Subsystem: "session",
			Name:      "state",
			Help:      "1 for the current session state, 0 otherwise",
		},
		[]string{"state"},
	)

	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gemmad",
			Subsystem: "session",
			Name:      "model_loads_total",
			Help:      "Model load attempts by outcome",
		},
		[]string{"outcome"},
	)

	loadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gemmad",
			Subsystem: "session",
			Name:      "model_load_duration_seconds",
			Help:      "Time spent constructing the engine",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gemmad",
			Subsystem: "session",
			Name:      "generations_total",
			Help:      "Generation requests by kind (single, chunked) and outcome",
		},
		[]string{"kind", "outcome"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gemmad",
			Subsystem: "session",
			Name:      "engine_generate_duration_seconds",
			Help:      "Duration of engine generate calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(stateGauge, loadsTotal, loadDuration, generationsTotal, generationDuration)
}

func observeState(s State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		stateGauge.WithLabelValues(string(st)).Set(v)
	}
}
