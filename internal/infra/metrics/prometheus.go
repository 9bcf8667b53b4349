package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natureobs_jobs_processed_total",
		Help: "Total number of analysis jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "natureobs_job_processing_duration_seconds",
		Help:    "Duration of video analysis pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "natureobs_frames_analyzed_total",
		Help: "Total number of frames run through the detector across all jobs",
	})

	FrameFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natureobs_frame_failures_total",
		Help: "Per-frame failures that were skipped, by kind",
	}, []string{"kind"})

	DetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natureobs_detections_total",
		Help: "Accepted detections across all frames, by category",
	}, []string{"category"})

	DetectionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "natureobs_detection_latency_seconds",
		Help:    "Latency of one detector invocation",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "natureobs_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natureobs_retry_total",
		Help: "Total number of job retries",
	}, []string{"attempt"})
)
