package relaysvc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkrupp/blobrelay/internal/domain"
)

const (
	operationUpload   = "upload"
	operationRetrieve = "retrieve"

	outcomeOK                  = "ok"
	outcomeBadRequest          = "bad_request"
	outcomeUpstreamUnavailable = "upstream_unavailable"
	outcomeUpstreamError       = "upstream_error"
	outcomeError               = "error"
)

func init() {
	prometheus.MustRegister(relayCallsMetric, relayCallDurationMetric)
}

//nolint:gochecknoglobals
var (
	relayCallsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blobrelay",
		Subsystem: "relay",
		Name:      "calls_total",
		Help:      "Total relay operations by outcome",
	}, []string{"operation", "outcome"})

	relayCallDurationMetric = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blobrelay",
		Subsystem: "relay",
		Name:      "call_duration_seconds",
		Help:      "Duration of relay operations including the blob store round-trip",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func outcomeOf(err error) string {
	var upstreamErr *domain.UpstreamError

	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrBadRequest):
		return outcomeBadRequest
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return outcomeUpstreamUnavailable
	case errors.As(err, &upstreamErr):
		return outcomeUpstreamError
	default:
		return outcomeError
	}
}

func observe(operation string, start time.Time, err error) {
	relayCallsMetric.WithLabelValues(operation, outcomeOf(err)).Inc()
	relayCallDurationMetric.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
