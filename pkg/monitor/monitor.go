package monitor

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal 按路由模板与状态码计数
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration 协议接口多为本地计算, 桶从 5ms 起
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "path"},
	)

	// HTTPInFlight 正在处理的请求数
	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})
)

// 抓取与探活请求不计入
var skipPaths = map[string]bool{
	"/metrics": true,
	"/health":  true,
}

var initOnce sync.Once

// Init 注册 HTTP 与业务指标, 重复调用只注册一次
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration, HTTPInFlight)
		InitBridgeMetrics()
	})
}

// PrometheusMiddleware 以路由模板 (/api/v1/deposits/:request_id) 为 path 标签, 未匹配的路由忽略
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" || skipPaths[path] {
			c.Next()
			return
		}

		HTTPInFlight.Inc()
		start := time.Now()
		c.Next()
		HTTPInFlight.Dec()

		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
