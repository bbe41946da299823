// Package quota bounds how many times a demo session may invoke each AI feature.
//
// Counts live in a session-scoped Ledger keyed by feature name. The Gate checks and
// increments a count in one step, so two concurrent calls for the same feature can
// never both slip past the ceiling.
package quota

import (
	"context"

	"github.com/pkg/errors"
)

const (
	DefaultPrefix  = "lumix_demo_ai_quota:"
	DefaultCeiling = 3
)

// ErrExhausted is returned by Ledger.Consume when the count already reached the ceiling.
var ErrExhausted = errors.New("quota exhausted")

type Ledger interface {
	// Get returns the current count for feature; unknown features count as 0.
	Get(ctx context.Context, feature string) (int, error)
	// Consume increments the count for feature unless it is already >= ceiling,
	// in which case it returns the unchanged count and ErrExhausted.
	Consume(ctx context.Context, feature string, ceiling int) (int, error)
	// Reset drops every count held by this ledger.
	Reset(ctx context.Context) error
}

func Key(prefix, feature string) string { return prefix + feature }
