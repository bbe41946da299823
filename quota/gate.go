package quota

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lumix-edu/lumix-core/events"
	"github.com/lumix-edu/lumix-core/metrics"
)

// CodeDemoLimit is the machine-readable code carried by ExceededError and the paywall event.
const CodeDemoLimit = "DEMO_AI_LIMIT"

type ExceededError struct {
	Feature string
	Count   int
}

func (e *ExceededError) Error() string { return "Demo AI limit reached" }

func (e *ExceededError) Code() string { return CodeDemoLimit }

func (e *ExceededError) Status() int { return http.StatusForbidden }

func IsExceeded(err error) bool {
	var qe *ExceededError
	return errors.As(err, &qe)
}

type State int

const (
	Unused State = iota
	Available
	Exhausted
)

func (s State) String() string {
	switch s {
	case Unused:
		return "unused"
	case Available:
		return "available"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

type Gate struct {
	ledger  Ledger
	ceiling int
	pub     events.Publisher
	log     *logrus.Entry
}

func NewGate(l Ledger, ceiling int, pub events.Publisher, log *logrus.Entry) *Gate {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if pub == nil {
		pub = events.Discard
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Gate{ledger: l, ceiling: ceiling, pub: pub, log: log.WithField("component", "quota")}
}

func (g *Gate) Ceiling() int { return g.ceiling }

// Consume admits one more demo invocation of feature or returns *ExceededError,
// publishing a paywall event in the latter case.
func (g *Gate) Consume(ctx context.Context, feature string) error {
	n, err := g.ledger.Consume(ctx, feature, g.ceiling)
	switch {
	case errors.Is(err, ErrExhausted):
		metrics.QuotaExceeded.WithLabelValues(feature).Inc()
		g.log.WithFields(logrus.Fields{"feature": feature, "count": n}).Info("demo quota exhausted")
		g.pub.Publish(events.Event{Type: events.TypePaywall, Status: http.StatusForbidden, Code: CodeDemoLimit})
		return &ExceededError{Feature: feature, Count: n}
	case err != nil:
		return errors.Wrap(err, "demo quota")
	}
	metrics.QuotaConsumed.WithLabelValues(feature).Inc()
	g.log.WithFields(logrus.Fields{"feature": feature, "count": n}).Debug("demo quota consumed")
	return nil
}

func (g *Gate) State(ctx context.Context, feature string) (State, error) {
	n, err := g.ledger.Get(ctx, feature)
	if err != nil {
		return Unused, err
	}
	switch {
	case n == 0:
		return Unused, nil
	case n >= g.ceiling:
		return Exhausted, nil
	}
	return Available, nil
}

func (g *Gate) Remaining(ctx context.Context, feature string) (int, error) {
	n, err := g.ledger.Get(ctx, feature)
	if err != nil {
		return 0, err
	}
	if n >= g.ceiling {
		return 0, nil
	}
	return g.ceiling - n, nil
}

func (g *Gate) Reset(ctx context.Context) error { return g.ledger.Reset(ctx) }
