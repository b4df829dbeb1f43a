// Package metrics records legal document loader runs for Prometheus.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/bull/fec-legal-docs/internal/indexer"
	"github.com/bull/fec-legal-docs/internal/storage"
)

// JobName is the Pushgateway job label for loader runs.
const JobName = "fec_legal_loader"

// Metrics tracks loader progress. It satisfies indexer.Recorder and
// objectstore.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	OpinionsIndexed  prometheus.Counter
	DocumentsIndexed prometheus.Counter
	PendingOpinions  prometheus.Counter
	Uploads          *prometheus.CounterVec
	ObjectsDeleted   prometheus.Counter
	RunDuration      prometheus.Histogram
	LastSuccess      prometheus.Gauge
	RunFailures      prometheus.Counter
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		OpinionsIndexed: factory.NewCounter(prometheus.CounterOpts{
			Name: "fec_legal_aos_indexed_total",
			Help: "Total number of advisory opinions written to the index",
		}),
		DocumentsIndexed: factory.NewCounter(prometheus.CounterOpts{
			Name: "fec_legal_ao_documents_indexed_total",
			Help: "Total number of attached documents written to the index",
		}),
		PendingOpinions: factory.NewCounter(prometheus.CounterOpts{
			Name: "fec_legal_aos_pending_total",
			Help: "Total number of indexed advisory opinions still pending",
		}),
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fec_legal_ao_uploads_total",
			Help: "Attachment uploads by outcome (uploaded, skipped)",
		}, []string{"outcome"}),
		ObjectsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fec_legal_ao_objects_deleted_total",
			Help: "Total number of orphaned attachments deleted from storage",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fec_legal_load_duration_seconds",
			Help:    "Duration of advisory opinion load runs",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 3600},
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fec_legal_load_last_success_timestamp_seconds",
			Help: "Unix time of the last successful load run",
		}),
		RunFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fec_legal_load_failures_total",
			Help: "Total number of failed load runs",
		}),
	}
}

// Registry returns the registry holding every loader metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// OpinionIndexed records one opinion written to the index.
func (m *Metrics) OpinionIndexed(ao *storage.AdvisoryOpinion) {
	m.OpinionsIndexed.Inc()
	m.DocumentsIndexed.Add(float64(len(ao.Documents)))
	if ao.IsPending {
		m.PendingOpinions.Inc()
	}
}

// RunCompleted records the outcome of a load run.
func (m *Metrics) RunCompleted(result *indexer.IndexResult, err error) {
	if err != nil {
		m.RunFailures.Inc()
		return
	}
	m.RunDuration.Observe(result.Duration.Seconds())
	m.LastSuccess.SetToCurrentTime()
}

func (m *Metrics) DocumentUploaded() { m.Uploads.WithLabelValues("uploaded").Inc() }
func (m *Metrics) DocumentSkipped()  { m.Uploads.WithLabelValues("skipped").Inc() }
func (m *Metrics) ObjectDeleted()    { m.ObjectsDeleted.Inc() }

// Push sends every loader metric to the Pushgateway at url.
func (m *Metrics) Push(ctx context.Context, url string) error {
	if err := push.New(url, JobName).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
