// Package metrics counts what the batch overlay run did, in prometheus form.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AmazingWilson-hub/road-lane/internal/lane"
	"github.com/AmazingWilson-hub/road-lane/internal/projection"
)

// Metrics holds the batch run collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FramesProcessed prometheus.Counter
	FramesSkipped   *prometheus.CounterVec
	PairsSkipped    *prometheus.CounterVec
	LanesDrawn      prometheus.Counter
	LanesEmpty      prometheus.Counter
	PointsDrawn     prometheus.Counter
	PointsCulled    prometheus.Counter
	FrameDuration   prometheus.Histogram
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lane_overlay_frames_processed_total",
			Help: "Frames parsed, projected and written",
		}),
		FramesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lane_overlay_frames_skipped_total",
			Help: "Frames skipped, by reason",
		}, []string{"reason"}),
		PairsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lane_overlay_record_pairs_skipped_total",
			Help: "Lane record line pairs dropped by the parser, by reason",
		}, []string{"reason"}),
		LanesDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lane_overlay_lanes_drawn_total",
			Help: "Lanes with at least one visible point",
		}),
		LanesEmpty: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lane_overlay_lanes_empty_total",
			Help: "Lanes whose samples were all behind the camera",
		}),
		PointsDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lane_overlay_points_drawn_total",
			Help: "Projected lane points handed to the rasteriser",
		}),
		PointsCulled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lane_overlay_points_culled_total",
			Help: "Lane samples dropped for non-positive camera depth",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lane_overlay_frame_duration_seconds",
			Help:    "Wall time per processed frame, decode to write",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	m.registry.MustRegister(
		m.FramesProcessed,
		m.FramesSkipped,
		m.PairsSkipped,
		m.LanesDrawn,
		m.LanesEmpty,
		m.PointsDrawn,
		m.PointsCulled,
		m.FrameDuration,
	)
	return m
}

// Registry exposes the underlying registry, e.g. for promhttp or tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFrame records one processed frame.
func (m *Metrics) ObserveFrame(lanes []projection.ProjectedLane, skipped []lane.Skip, took time.Duration) {
	if m == nil {
		return
	}
	m.FramesProcessed.Inc()
	m.FrameDuration.Observe(took.Seconds())
	for _, s := range skipped {
		m.PairsSkipped.WithLabelValues(string(s.Reason)).Inc()
	}
	for _, l := range lanes {
		if l.Empty() {
			m.LanesEmpty.Inc()
		} else {
			m.LanesDrawn.Inc()
		}
		m.PointsDrawn.Add(float64(len(l.Points)))
		m.PointsCulled.Add(float64(l.Culled))
	}
}

// SkipFrame records a frame that could not be processed.
func (m *Metrics) SkipFrame(reason string) {
	if m == nil {
		return
	}
	m.FramesSkipped.WithLabelValues(reason).Inc()
}

// WriteTextfile dumps all metrics in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
