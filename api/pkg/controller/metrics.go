package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cookiegen",
		Name:      "runs_started_total",
		Help:      "Runs started by the controller.",
	})
	metricRunsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cookiegen",
		Name:      "runs_finished_total",
		Help:      "Runs that reached a final status.",
	}, []string{"status"})
	metricRunsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cookiegen",
		Name:      "runs_active",
		Help:      "Runner processes currently alive.",
	})
	metricStatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cookiegen",
		Name:      "status_updates_total",
		Help:      "Status updates received from runners, by error type.",
	}, []string{"error_type"})
	metricOtpSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cookiegen",
		Name:      "otp_submissions_total",
		Help:      "Codes submitted by users.",
	})
)
