package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 上游调用
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcescout_upstream_requests_total",
			Help: "Total number of upstream completion requests",
		},
		[]string{"provider", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sourcescout_upstream_duration_seconds",
			Help:    "Upstream completion latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	// 问答接口
	Answers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcescout_answers_total",
			Help: "Total number of answers produced by mode and outcome",
		},
		[]string{"endpoint", "mode", "outcome"},
	)

	CutoffShortCircuits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcescout_cutoff_short_circuits_total",
			Help: "Queries answered with the knowledge cutoff reply instead of an upstream call",
		},
		[]string{"personality"},
	)

	WebSearchDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sourcescout_web_search_degraded_total",
			Help: "Web mode requests answered with the fallback message",
		},
	)

	// 反馈转发
	FeedbackSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcescout_feedback_submissions_total",
			Help: "Feedback submissions by outcome",
		},
		[]string{"outcome"},
	)
)
