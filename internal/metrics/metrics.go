// Package metrics 暴露 HTTP 请求、分类树写操作和级联规模的 Prometheus 指标。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "careerpath"

// Collector 持有独立的 Registry，测试之间互不干扰。
type Collector struct {
	registry *prometheus.Registry

	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	mutationTotal  *prometheus.CounterVec
	cascadeSize    prometheus.Histogram
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		mutationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_mutations_total",
			Help:      "Total number of taxonomy mutations by operation and result.",
		}, []string{"op", "result"}),
		cascadeSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_cascade_size",
			Help:      "Number of descendants deactivated together with a node.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
	reg.MustRegister(
		c.requestTotal,
		c.requestLatency,
		c.mutationTotal,
		c.cascadeSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveMutation 实现 service.MutationRecorder。
func (c *Collector) ObserveMutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.mutationTotal.WithLabelValues(op, result).Inc()
}

func (c *Collector) ObserveCascade(size int) {
	c.cascadeSize.Observe(float64(size))
}

// Middleware 记录请求数和耗时。route 取路由模板，未匹配的请求记为 "unmatched"，避免标签基数膨胀。
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.requestTotal.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.requestLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler 返回 /metrics 的处理器。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
