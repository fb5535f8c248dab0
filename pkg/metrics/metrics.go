package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cg-dump/datasrv/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	namespace   string
	httpReqCnt  *prometheus.CounterVec
	httpDur     *prometheus.HistogramVec
	httpInfl    *prometheus.GaugeVec
	publishCnt  *prometheus.CounterVec
	publishDur  *prometheus.HistogramVec
	publishInfl *prometheus.GaugeVec
	rowsWritten *prometheus.CounterVec
	valFailCnt  *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	// Register basic HTTP metrics
	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	publishCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "dataset_publish_total"}, []string{"product", "status"})
	publishDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "dataset_publish_duration_seconds", Buckets: cfg.Buckets}, []string{"product", "status"})
	publishInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "dataset_publish_inflight"}, []string{"product"})
	r.MustRegister(publishCnt, publishDur, publishInfl)

	rowsWritten := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "dataset_rows_written_total"}, []string{"product"})
	valFailCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "dataset_validation_failures_total"}, []string{"product"})
	r.MustRegister(rowsWritten, valFailCnt)

	return &Metrics{
		registry:    r,
		namespace:   ns,
		httpReqCnt:  httpReqCnt,
		httpDur:     httpDur,
		httpInfl:    httpInfl,
		publishCnt:  publishCnt,
		publishDur:  publishDur,
		publishInfl: publishInfl,
		rowsWritten: rowsWritten,
		valFailCnt:  valFailCnt,
	}
}

func (m *Metrics) PublishStart(product string) {
	m.publishInfl.WithLabelValues(product).Inc()
}

func (m *Metrics) PublishDone(product string, since time.Time, status string) {
	m.publishCnt.WithLabelValues(product, status).Inc()
	m.publishDur.WithLabelValues(product, status).Observe(time.Since(since).Seconds())
	m.publishInfl.WithLabelValues(product).Dec()
}

func (m *Metrics) RowsWritten(product string, count int) {
	m.rowsWritten.WithLabelValues(product).Add(float64(count))
}

func (m *Metrics) ValidationFailed(product string) {
	m.valFailCnt.WithLabelValues(product).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := httpStatus(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func httpStatus(code int) string { return strconv.Itoa(code) }
