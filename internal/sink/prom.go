package sink

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carbontrace/internal/container"
	"carbontrace/internal/telemetry"
)

const metricPrefix = "sustainability"

// PromSink exposes the latest record through a pull-based registry: one
// gauge per numeric field and one metadata gauge carrying the text
// fields as label dimensions. Publishing overwrites; no history is kept
// in process.
type PromSink struct {
	registry   *prometheus.Registry
	schema     telemetry.Schema
	gauges     map[string]prometheus.Gauge
	info       *prometheus.GaugeVec
	labelNames []string

	containersRunning prometheus.Gauge
	containersIdle    prometheus.Gauge
	imageSizeAvg      prometheus.Gauge
	pods              prometheus.Gauge
	nodes             prometheus.Gauge
	podsPerNode       prometheus.Gauge
}

// NewPromSink builds the gauge set from the record schema, so the
// endpoint and the CSV file can never disagree on fields.
func NewPromSink(schema telemetry.Schema) *PromSink {
	s := &PromSink{
		registry: prometheus.NewRegistry(),
		schema:   schema,
		gauges:   make(map[string]prometheus.Gauge),
	}
	for _, f := range schema.NumericFields() {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_%s", metricPrefix, f.Name),
			Help: fmt.Sprintf("Latest sampled value of %s", f.Name),
		})
		s.registry.MustRegister(g)
		s.gauges[f.Name] = g
	}
	for _, f := range schema.LabelFields() {
		s.labelNames = append(s.labelNames, f.Name)
	}
	s.info = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: metricPrefix + "_info",
		Help: "Metadata labels for sustainability metrics",
	}, s.labelNames)
	s.registry.MustRegister(s.info)

	s.containersRunning = s.newGauge("containers_running", "Running Docker containers")
	s.containersIdle = s.newGauge("containers_idle", "Exited Docker containers")
	s.imageSizeAvg = s.newGauge("container_image_size_avg", "Average Docker image size")
	s.pods = s.newGauge("kubernetes_pods", "Kubernetes pods across all namespaces")
	s.nodes = s.newGauge("kubernetes_nodes", "Kubernetes nodes")
	s.podsPerNode = s.newGauge("kubernetes_pods_per_node", "Pods per node utilization")
	return s
}

func (s *PromSink) newGauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: fmt.Sprintf("%s_%s", metricPrefix, name),
		Help: help,
	})
	s.registry.MustRegister(g)
	return g
}

func (s *PromSink) Name() string { return "prometheus" }

// Publish overwrites the gauge state with the record's values.
func (s *PromSink) Publish(rec telemetry.MetricRecord) error {
	for name, g := range s.gauges {
		if v, ok := rec.Numeric(name); ok {
			g.Set(v)
		}
	}
	labels := make(prometheus.Labels, len(s.labelNames))
	for _, name := range s.labelNames {
		labels[name] = rec.Value(name)
	}
	s.info.Reset()
	s.info.With(labels).Set(1)
	return nil
}

// SetContainerMetrics publishes the optional Docker/Kubernetes gauges.
func (s *PromSink) SetContainerMetrics(m container.Metrics) {
	s.containersRunning.Set(float64(m.RunningContainers))
	s.containersIdle.Set(float64(m.IdleContainers))
	s.imageSizeAvg.Set(m.AvgImageSize)
	s.pods.Set(float64(m.Pods))
	s.nodes.Set(float64(m.Nodes))
	s.podsPerNode.Set(m.PodsPerNode)
}

// Registry exposes the underlying registry for tests and the HTTP
// handler.
func (s *PromSink) Registry() *prometheus.Registry { return s.registry }

// Serve runs the pull endpoint until the context is done.
func (s *PromSink) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
