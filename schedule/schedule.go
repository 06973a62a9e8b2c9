// Package schedule turns cron schedules into sequences of tick times.
package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/seq"
)

// parser accepts standard five-field expressions, an optional leading
// seconds field, and descriptors such as @hourly or @every 5m.
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Option configures Ticks.
type Option func(*tickOptions)

type tickOptions struct {
	loc *time.Location
	now func() time.Time
}

// WithLocation evaluates the expression in loc instead of time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *tickOptions) { o.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *tickOptions) { o.now = now }
}

// Validate reports whether expr parses.
func Validate(expr string) error {
	_, err := parser.Parse(expr)
	if err != nil {
		return errors.InvalidInput("schedule", err.Error()).WithCause(err)
	}
	return nil
}

// Ticks returns an unbounded sequence of the activation times of expr.
// Each pull waits for the next activation after the later of the previous
// tick and the current time, so activations missed by a slow consumer are
// skipped rather than delivered in a burst. Nothing runs between pulls.
func Ticks(expr string, opts ...Option) (*seq.Sequence[time.Time], error) {
	o := tickOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, errors.InvalidInput("schedule", err.Error()).WithCause(err)
	}
	if o.loc != nil {
		if spec, ok := sched.(*cron.SpecSchedule); ok {
			spec.Location = o.loc
		}
	}
	return seq.New[time.Time](&tickProducer{sched: sched, now: o.now}), nil
}

// Every returns ticks at a fixed interval, rounded down to the second as
// cron does, with a minimum of one second.
func Every(d time.Duration, opts ...Option) *seq.Sequence[time.Time] {
	o := tickOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return seq.New[time.Time](&tickProducer{sched: cron.Every(d), now: o.now})
}

type tickProducer struct {
	sched cron.Schedule
	now   func() time.Time
	last  time.Time
}

func (p *tickProducer) Pull(ctx context.Context) (seq.Result[time.Time], error) {
	from := p.now()
	if p.last.After(from) {
		from = p.last
	}
	next := p.sched.Next(from)
	if next.IsZero() {
		// The expression can never fire again.
		return seq.End[time.Time](), nil
	}

	timer := time.NewTimer(next.Sub(p.now()))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return seq.Result[time.Time]{}, ctx.Err()
	case <-timer.C:
	}
	p.last = next
	return seq.Yield(next), nil
}
