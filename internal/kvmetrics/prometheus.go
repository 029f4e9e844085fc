package kvmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// promRecorder is the Prometheus-backed Recorder. Every field is a vec so a
// single instance can serve every endpoint, opcode and error kind without
// per-dimension construction.
type promRecorder struct {
	connectAttempts *prometheus.CounterVec
	connectDuration *prometheus.HistogramVec
	reauthAttempts  *prometheus.CounterVec
	connectionState *prometheus.GaugeVec

	dispatchOperations *prometheus.CounterVec
	dispatchDuration   *prometheus.HistogramVec
	serverDuration      *prometheus.HistogramVec

	retries        *prometheus.CounterVec
	configRefresh  *prometheus.CounterVec
	vbucketMapRev  prometheus.Gauge
}

// New builds a Prometheus-backed Recorder registered against reg. Pass
// prometheus.NewRegistry() or prometheus.DefaultRegisterer wrapped via
// prometheus.WrapRegistererWith as needed; a nil reg registers against the
// global default registerer.
func New(reg prometheus.Registerer) Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &promRecorder{
		connectAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gocbcorex_connect_attempts_total",
				Help: "Total connection build attempts (dial + bootstrap) by endpoint and outcome",
			},
			[]string{"endpoint", "status"},
		),
		connectDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "gocbcorex_connect_duration_milliseconds",
				Help: "Duration of connection build attempts (dial + bootstrap) in milliseconds",
				Buckets: []float64{
					1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000,
				},
			},
			[]string{"endpoint", "status"},
		),
		reauthAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gocbcorex_reauth_attempts_total",
				Help: "Total hot-reauthentication attempts by endpoint and outcome",
			},
			[]string{"endpoint", "status"},
		),
		connectionState: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gocbcorex_connection_state",
				Help: "Current connection state per endpoint (1 for the active state, 0 otherwise)",
			},
			[]string{"endpoint", "state"},
		),
		dispatchOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gocbcorex_dispatch_operations_total",
				Help: "Total dispatched KV operations by opcode and resulting status",
			},
			[]string{"op_code", "status"},
		),
		dispatchDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "gocbcorex_dispatch_duration_milliseconds",
				Help: "Duration of dispatched KV operations in milliseconds",
				Buckets: []float64{
					0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000,
				},
			},
			[]string{"op_code", "status"},
		),
		serverDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "gocbcorex_server_duration_microseconds",
				Help: "Server-reported processing time decoded from response ServerDuration frames",
				Buckets: []float64{
					50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000,
				},
			},
			[]string{"op_code"},
		),
		retries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gocbcorex_retries_total",
				Help: "Total retry attempts by the error kind that triggered them",
			},
			[]string{"error_kind"},
		),
		configRefresh: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gocbcorex_config_refresh_total",
				Help: "Total cluster config refreshes by trigger",
			},
			[]string{"trigger"},
		),
		vbucketMapRev: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "gocbcorex_vbucket_map_revision",
				Help: "Currently applied cluster config revision",
			},
		),
	}
}

func (m *promRecorder) ObserveConnect(endpoint string, duration time.Duration, ok bool) {
	if m == nil {
		return
	}
	status := StatusLabel(ok)
	m.connectAttempts.WithLabelValues(endpoint, status).Inc()
	m.connectDuration.WithLabelValues(endpoint, status).Observe(float64(duration.Milliseconds()))
}

func (m *promRecorder) ObserveReauth(endpoint string, ok bool) {
	if m == nil {
		return
	}
	m.reauthAttempts.WithLabelValues(endpoint, StatusLabel(ok)).Inc()
}

func (m *promRecorder) SetConnectionState(endpoint, state string) {
	if m == nil {
		return
	}
	// Zero the endpoint's other states so only the current one reads 1.
	for _, s := range []string{"Disconnected", "Connecting", "Connected"} {
		v := 0.0
		if s == state {
			v = 1
		}
		m.connectionState.WithLabelValues(endpoint, s).Set(v)
	}
}

func (m *promRecorder) ObserveDispatch(opcode, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dispatchOperations.WithLabelValues(opcode, status).Inc()
	m.dispatchDuration.WithLabelValues(opcode, status).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *promRecorder) ObserveServerDuration(opcode string, us int64) {
	if m == nil {
		return
	}
	m.serverDuration.WithLabelValues(opcode).Observe(float64(us))
}

func (m *promRecorder) ObserveRetry(errorKind string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(errorKind).Inc()
}

func (m *promRecorder) ObserveConfigRefresh(trigger string) {
	if m == nil {
		return
	}
	m.configRefresh.WithLabelValues(trigger).Inc()
}

func (m *promRecorder) SetVBucketMapRevision(revision uint64) {
	if m == nil {
		return
	}
	m.vbucketMapRev.Set(float64(revision))
}
