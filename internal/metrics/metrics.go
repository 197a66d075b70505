package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests counts every HTTP attempt against the TfL API.
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tfl_api_requests_total",
			Help: "Number of HTTP attempts made against the TfL API, by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	APIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tfl_api_retries_total",
			Help: "Number of retried TfL API calls, by reason (rate_limit, transport)",
		},
		[]string{"reason"},
	)

	OutgoingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tubestats_outgoing_request_duration_seconds",
			Help:    "Latency of outgoing HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"url", "method", "status"},
	)
)

var (
	TubeLines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tubestats_tube_lines",
		Help: "Number of tube lines included in the last run",
	})

	StopPointsPerLine = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tubestats_stop_points",
		Help: "Number of stop points collected for each line",
	}, []string{"line"})

	SkippedStopPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubestats_skipped_stop_points_total",
		Help: "Stop points dropped because of invalid coordinates",
	}, []string{"line"})

	StopDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tubestats_stop_distance_km",
		Help:    "Distance of stop points from central London in kilometres",
		Buckets: []float64{1, 2, 5, 10, 15, 20, 30, 40, 60},
	})
)

var (
	PipelineDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tubestats_pipeline_duration_seconds",
		Help: "Wall-clock duration of the last pipeline run",
	})

	LastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tubestats_last_success_timestamp_seconds",
		Help: "Unix time of the last successful pipeline run",
	})
)
