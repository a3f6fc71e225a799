// Package metrics holds Prometheus instruments that are used across the
// digest pipeline.  All collectors are registered with the global registry,
// so importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EligibleRecipients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_eligible_recipients",
			Help: "Recipients matched by the most recent scheduled run.",
		})

	SendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_sends_total",
			Help: "Cumulative digests delivered, by trigger.",
		}, []string{"trigger"})

	SendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_send_errors_total",
			Help: "Cumulative render or delivery failures.",
		})

	SkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_skipped_total",
			Help: "Recipients skipped, by reason (already_sent, rate_limited, empty).",
		}, []string{"reason"})

	RateLimitDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_rate_limit_denials_total",
			Help: "Rate-limit denials, by layer (trigger, global).",
		}, []string{"layer"})

	RateLimitFailOpenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_rate_limit_fail_open_total",
			Help: "Rate checks that failed open because the count query errored.",
		})

	WeatherStoriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_weather_stories_total",
			Help: "Weather stories generated, by priority tier.",
		}, []string{"tier"})

	ForecastErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_forecast_errors_total",
			Help: "Forecast API fetch failures (degraded, non-fatal).",
		})

	AdFillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_ad_fills_total",
			Help: "Ad slot fills, by slot (header, native) and kind (paid, house).",
		}, []string{"slot", "kind"})

	ResendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_resends_total",
			Help: "On-demand resend attempts, by trigger and outcome.",
		}, []string{"trigger", "outcome"})
)

func init() {
	prometheus.MustRegister(
		EligibleRecipients,
		SendsTotal,
		SendErrorsTotal,
		SkippedTotal,
		RateLimitDenialsTotal,
		RateLimitFailOpenTotal,
		WeatherStoriesTotal,
		ForecastErrorsTotal,
		AdFillsTotal,
		ResendsTotal,
	)
}
