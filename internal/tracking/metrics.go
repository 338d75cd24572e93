package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoverAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_discover_attempts_total",
		Help: "Carrier probes made while discovering a tracking number's owner",
	}, []string{"carrier"})
	adapterErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_adapter_errors_total",
		Help: "Carrier adapter calls that returned a transport or auth error",
	}, []string{"carrier"})
	trackResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracking_resolved_total",
		Help: "Tracking lookups that resolved to a carrier",
	})
	trackNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracking_not_found_total",
		Help: "Tracking lookups no configured carrier could answer",
	})
)
