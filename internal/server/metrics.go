package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "menuboard_http_requests_total",
		Help: "HTTP requests by method, route pattern and status",
	}, []string{"method", "route", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "menuboard_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	ratingsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "menuboard_ratings_created_total",
		Help: "Ratings stored, by stars",
	}, []string{"stars"})

	rateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "menuboard_rating_rate_limited_total",
		Help: "Rating submissions rejected by the per-IP limiter",
	})
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, ratingsCreatedTotal, rateLimitedTotal)
}

func observeRating(stars int) {
	ratingsCreatedTotal.WithLabelValues(strconv.Itoa(stars)).Inc()
}
