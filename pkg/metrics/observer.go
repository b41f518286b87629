package metrics

import (
	"strings"

	"github.com/getmockd/mocket/pkg/session"
)

// Outcome label values.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
)

// Observer records exchange counts and durations.
type Observer struct {
	exchanges *Counter
	duration  *Histogram
}

var _ session.Observer = (*Observer)(nil)

// NewObserver registers the exchange metrics on r.
func NewObserver(r *Registry) *Observer {
	return &Observer{
		exchanges: r.NewCounter("mocket_exchanges_total",
			"Exchanges handled, by channel and outcome.", "channel", "outcome"),
		duration: r.NewHistogram("mocket_exchange_duration_seconds",
			"Time from receiving a message to resolving its content.", nil, "channel"),
	}
}

// Outcome returns the outcome label for sc.
func Outcome(sc *session.Context) string {
	switch {
	case sc.Failed():
		return toSnake(string(sc.Failure.Kind))
	case sc.Matched():
		return OutcomeMatched
	default:
		return OutcomeUnmatched
	}
}

// Observe implements session.Observer.
func (o *Observer) Observe(sc *session.Context) {
	ch := string(sc.Channel)
	if c, err := o.exchanges.WithLabels(ch, Outcome(sc)); err == nil {
		c.Inc()
	}
	if h, err := o.duration.WithLabels(ch); err == nil {
		h.Observe(sc.Duration.Seconds())
	}
}

// toSnake turns "ResolverFailure" into "resolver_failure".
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
