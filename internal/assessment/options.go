package assessment

import (
	"io"
	"log/slog"
	"math/rand"
	"time"

	"k8s.io/utils/clock"
)

type options struct {
	clock       clock.WithTicker
	rand        *rand.Rand
	logger      *slog.Logger
	onTimeAlert func(remaining int)
}

// Option configures quiz blocks, exam sessions and players.
type Option func(*options)

// WithClock replaces the wall clock driving the exam countdown.
func WithClock(c clock.WithTicker) Option {
	return func(o *options) { o.clock = c }
}

// WithRand sets the source used to shuffle matching options.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rand = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTimeWarning registers a one-shot callback fired when the remaining exam
// time first drops to the definition's TimeWarning.
func WithTimeWarning(fn func(remaining int)) Option {
	return func(o *options) { o.onTimeAlert = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:  clock.RealClock{},
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
