package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/maine/rssnotify/internal/news"
)

const jobName = "rssnotify"

// Run holds the metrics of a single run. Each run gets its own registry
// so nothing leaks between runs in tests.
type Run struct {
	registry  *prometheus.Registry
	entries   *prometheus.CounterVec
	outcomes  *prometheus.CounterVec
	duration  prometheus.Gauge
	lastRunAt prometheus.Gauge
}

// NewRun creates an empty set of run metrics.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Run{
		registry: reg,
		entries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rssnotify_entries_total",
			Help: "Feed entries seen by the run, by stage",
		}, []string{"stage"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rssnotify_posts_total",
			Help: "Posts processed by the run, by outcome",
		}, []string{"outcome"}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rssnotify_run_duration_seconds",
			Help: "Wall time of the run",
		}),
		lastRunAt: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rssnotify_last_run_timestamp_seconds",
			Help: "Unix time the run finished",
		}),
	}
}

// Observe copies a run report into the counters.
func (r *Run) Observe(report news.Report, took time.Duration, finishedAt time.Time) {
	r.entries.WithLabelValues("collected").Add(float64(report.Collected))
	r.entries.WithLabelValues("selected").Add(float64(report.Selected))
	r.entries.WithLabelValues("unique").Add(float64(report.Unique))

	for _, o := range []news.Outcome{news.Sent, news.Failed, news.Filtered, news.AlreadyDelivered, news.Pending} {
		r.outcomes.WithLabelValues(o.String()).Add(float64(report.Count(o)))
	}

	r.duration.Set(took.Seconds())
	r.lastRunAt.Set(float64(finishedAt.Unix()))
}

// Push sends the metrics to a Prometheus Pushgateway, replacing the
// previous push of the job.
func (r *Run) Push(ctx context.Context, gatewayURL string) error {
	if err := push.New(gatewayURL, jobName).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
