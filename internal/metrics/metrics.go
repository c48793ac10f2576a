package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CoordinatesCreated *prometheus.CounterVec
	CoordinatesDeleted prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	RequestSeconds     *prometheus.HistogramVec
	GeocodeSeconds     *prometheus.HistogramVec
	GeocodeErrors      prometheus.Counter
	InFlightRequests   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CoordinatesCreated: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "coordinates_create_total",
			Help: "Total number of create requests by outcome (inserted or existing).",
		}, []string{"outcome"}),
		CoordinatesDeleted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "coordinates_deleted_total",
			Help: "Total number of deleted coordinate records.",
		}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served by the API.",
		}, []string{"method", "route", "status"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		GeocodeSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		GeocodeErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "geocoding_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		InFlightRequests: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served.",
		}),
	}
}
