package pbsmetrics

import (
	"fmt"

	metrics "github.com/rcrowley/go-metrics"
)

// AdapterMetrics houses the metrics for a particular adapter.
type AdapterMetrics struct {
	NoCookieMeter     metrics.Meter
	ErrorMeter        metrics.Meter
	NoBidMeter        metrics.Meter
	TimeoutMeter      metrics.Meter
	RequestMeter      metrics.Meter
	RequestTimer      metrics.Timer
	PriceHistogram    metrics.Histogram
	BidsReceivedMeter metrics.Meter
}

// NewAdapterMetrics registers the per-adapter instruments under
// adapter.<exchange>.* in the given registry.
func NewAdapterMetrics(registry metrics.Registry, exchange string) *AdapterMetrics {
	return &AdapterMetrics{
		NoCookieMeter:     metrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.no_cookie_requests", exchange), registry),
		ErrorMeter:        metrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.error_requests", exchange), registry),
		NoBidMeter:        metrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.no_bid_requests", exchange), registry),
		TimeoutMeter:      metrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.timeout_requests", exchange), registry),
		RequestMeter:      metrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.requests", exchange), registry),
		RequestTimer:      metrics.GetOrRegisterTimer(fmt.Sprintf("adapter.%s.request_time", exchange), registry),
		PriceHistogram:    metrics.GetOrRegisterHistogram(fmt.Sprintf("adapter.%s.prices", exchange), registry, metrics.NewExpDecaySample(1028, 0.015)),
		BidsReceivedMeter: metrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.bids_received", exchange), registry),
	}
}
