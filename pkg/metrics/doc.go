// Package metrics collects exchange metrics and serves them in the Prometheus
// text exposition format (text/plain; version=0.0.4).
//
// A Registry holds labelled counters, gauges and histograms plus gauges whose
// value is read from a callback at scrape time. The Observer records every
// finished exchange:
//
//   - mocket_exchanges_total{channel,outcome}: outcome is matched, unmatched,
//     resolver_failure or delivery_failure
//   - mocket_exchange_duration_seconds{channel}: time spent dispatching
//
// The server adds gauges for live WebSocket connections, groups and the
// number of setups per channel.
package metrics
