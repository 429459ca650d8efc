package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics счётчики станции. Нулевой *Metrics допустим и ничего не пишет.
type Metrics struct {
	registry *prometheus.Registry

	framesTotal       prometheus.Counter
	framesRecorded    prometheus.Counter
	recordErrors      prometheus.Counter
	sessionsPersisted prometheus.Counter
	trackedPoints     prometheus.Gauge
	recordingActive   prometheus.Gauge
	postProcess       prometheus.Histogram
}

// New создаёт метрики с собственным реестром
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "station_frames_total",
			Help: "Frames processed by the main loop",
		}),
		framesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "station_frames_recorded_total",
			Help: "Frames written to the recording container",
		}),
		recordErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "station_record_errors_total",
			Help: "Recording sessions terminated by a write failure",
		}),
		sessionsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "station_sessions_persisted_total",
			Help: "Detection sessions whose results were written",
		}),
		trackedPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "station_tracked_points",
			Help: "Tracked points in the current detection session",
		}),
		recordingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "station_recording_active",
			Help: "1 while a recording is open",
		}),
		postProcess: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "station_postprocess_seconds",
			Help:    "Post-processing task duration",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.framesTotal,
		m.framesRecorded,
		m.recordErrors,
		m.sessionsPersisted,
		m.trackedPoints,
		m.recordingActive,
		m.postProcess,
	)

	return m
}

// Handler возвращает HTTP-обработчик для /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) FrameProcessed() {
	if m == nil {
		return
	}
	m.framesTotal.Inc()
}

func (m *Metrics) FrameRecorded() {
	if m == nil {
		return
	}
	m.framesRecorded.Inc()
}

func (m *Metrics) RecordError() {
	if m == nil {
		return
	}
	m.recordErrors.Inc()
}

func (m *Metrics) SessionPersisted() {
	if m == nil {
		return
	}
	m.sessionsPersisted.Inc()
}

func (m *Metrics) SetTrackedPoints(n int) {
	if m == nil {
		return
	}
	m.trackedPoints.Set(float64(n))
}

func (m *Metrics) SetRecording(active bool) {
	if m == nil {
		return
	}
	if active {
		m.recordingActive.Set(1)
		return
	}
	m.recordingActive.Set(0)
}

func (m *Metrics) ObservePostProcess(d time.Duration) {
	if m == nil {
		return
	}
	m.postProcess.Observe(d.Seconds())
}
