package comparison

import (
	"time"

	"github.com/google/uuid"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/constants"
	"github.com/TrendsetAM/BOQ-TOOLS/pkg/errors"
)

// options configures a session.
type options struct {
	tolerance Tolerance
	patterns  []string
	matchFunc MatchFunc
	id        string
	now       func() time.Time
}

func defaultOptions() *options {
	return &options{
		tolerance: Tolerance{
			Relative: constants.DefaultRelativeTolerance,
			Absolute: constants.DefaultAbsoluteTolerance,
		},
		patterns:  DefaultSubtotalPatterns,
		matchFunc: Match,
		now:       time.Now,
	}
}

// Option is a function that configures a Session.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	return o, nil
}

// newOptions returns session options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithTolerance sets the total price tolerance. A warning is raised when
// |total - qty×price| exceeds relative×|qty×price| + absolute.
func WithTolerance(relative, absolute float64) Option {
	return func(o *options) error {
		if relative < 0 {
			return &errors.ValidationError{Field: "tolerance", Value: relative, Message: "cannot be negative"}
		}
		if absolute < 0 {
			return &errors.ValidationError{Field: "absolute_tolerance", Value: absolute, Message: "cannot be negative"}
		}
		o.tolerance = Tolerance{Relative: relative, Absolute: absolute}
		return nil
	}
}

// WithSubtotalPatterns replaces the description patterns that mark subtotal rows.
func WithSubtotalPatterns(patterns ...string) Option {
	return func(o *options) error {
		o.patterns = append([]string(nil), patterns...)
		return nil
	}
}

// WithMatchFunc replaces the positional matcher.
func WithMatchFunc(fn MatchFunc) Option {
	return func(o *options) error {
		if fn == nil {
			return &errors.ValidationError{Field: "match_func", Message: "cannot be nil"}
		}
		o.matchFunc = fn
		return nil
	}
}

// WithSessionID fixes the session identifier instead of generating a UUID.
func WithSessionID(id string) Option {
	return func(o *options) error {
		o.id = id
		return nil
	}
}

// WithClock sets the time source used for result metadata.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}
