package world

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const worldIDLabel = "world_id"

var (
	modelCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stagesim_model_count",
		Help: "The number of models registered in a world.",
	}, []string{worldIDLabel})

	stallCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagesim_stall_count_total",
		Help: "The total number of ticks a model has spent stalled by a collision.",
	}, []string{worldIDLabel})

	tickCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagesim_tick_count_total",
		Help: "The total number of ticks a world has advanced.",
	}, []string{worldIDLabel})
)

func (w *World) instrumentModelAdded() {
	modelCount.With(prometheus.Labels{worldIDLabel: w.ID.String()}).Inc()
}

func (w *World) instrumentModelRemoved() {
	modelCount.With(prometheus.Labels{worldIDLabel: w.ID.String()}).Dec()
}

func (w *World) instrumentStall() {
	stallCountTotal.With(prometheus.Labels{worldIDLabel: w.ID.String()}).Inc()
}

func (w *World) instrumentTick() {
	tickCountTotal.With(prometheus.Labels{worldIDLabel: w.ID.String()}).Inc()
}
