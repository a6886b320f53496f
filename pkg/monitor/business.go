package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BridgeMetrics 协议层业务指标
type BridgeMetrics struct {
	RequestsTotal      *prometheus.CounterVec
	RefundsTotal       *prometheus.CounterVec
	SignatureFailures  *prometheus.CounterVec
	PendingRequests    *prometheus.GaugeVec
	RelayerStepSeconds *prometheus.HistogramVec
	ExpiredTotal       *prometheus.CounterVec
}

// Global Metrics Instance, 未初始化时所有记录函数为空操作
var Bridge *BridgeMetrics

// InitBridgeMetrics 初始化业务指标
func InitBridgeMetrics() {
	Bridge = &BridgeMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_requests_total",
			Help: "Protocol operations by flow and result",
		}, []string{"flow", "result"}),
		RefundsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_refunds_total",
			Help: "Withdrawal refunds by reason",
		}, []string{"reason"}),
		SignatureFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_signature_failures_total",
			Help: "Rejected signer responses",
		}, []string{"flow"}),
		PendingRequests: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bridge_pending_requests",
			Help: "In-flight requests awaiting a signer response",
		}, []string{"kind"}),
		RelayerStepSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bridge_relayer_step_duration_seconds",
			Help:    "Duration of relayer steps",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"step"}),
		ExpiredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_expired_total",
			Help: "Pending requests closed by the expiry sweeper",
		}, []string{"kind"}),
	}
}

func ObserveRequest(flow, result string) {
	if Bridge != nil {
		Bridge.RequestsTotal.WithLabelValues(flow, result).Inc()
	}
}

func ObserveRefund(reason string) {
	if Bridge != nil {
		Bridge.RefundsTotal.WithLabelValues(reason).Inc()
	}
}

func ObserveSignatureFailure(flow string) {
	if Bridge != nil {
		Bridge.SignatureFailures.WithLabelValues(flow).Inc()
	}
}

// AddPending kind 为 deposit / withdraw, delta 为 +1 / -1
func AddPending(kind string, delta float64) {
	if Bridge != nil {
		Bridge.PendingRequests.WithLabelValues(kind).Add(delta)
	}
}

func ObserveRelayerStep(step string, start time.Time) {
	if Bridge != nil {
		Bridge.RelayerStepSeconds.WithLabelValues(step).Observe(time.Since(start).Seconds())
	}
}

func ObserveExpired(kind string, n int) {
	if Bridge != nil && n > 0 {
		Bridge.ExpiredTotal.WithLabelValues(kind).Add(float64(n))
	}
}
