package schedule

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/seq"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"*/5 * * * *", false},
		{"30 */5 * * * *", false},
		{"@hourly", false},
		{"@every 1m", false},
		{"not a schedule", true},
		{"61 * * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := Validate(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%q) = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if err != nil {
				if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeInvalidInput {
					t.Errorf("expected invalid input error, got %v", err)
				}
			}
		})
	}
}

func TestTicks_InvalidExpression(t *testing.T) {
	if _, err := Ticks("nope"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTicks_FollowsSchedule(t *testing.T) {
	// A clock just before a second boundary keeps the real wait short.
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	start := time.Now()
	clock := func() time.Time { return base.Add(time.Since(start) - 5*time.Millisecond + time.Second - time.Nanosecond) }

	s, err := Ticks("* * * * * *", WithLocation(time.UTC), WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Take(2).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d ticks", len(got))
	}
	if want := base.Add(time.Second); !got[0].Equal(want) {
		t.Errorf("first tick = %v, want %v", got[0], want)
	}
	if d := got[1].Sub(got[0]); d != time.Second {
		t.Errorf("ticks %v apart, want 1s", d)
	}
}

func TestTicks_ContextCancel(t *testing.T) {
	s, err := Ticks("@yearly")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := s.Pull(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type neverSchedule struct{}

func (neverSchedule) Next(time.Time) time.Time { return time.Time{} }

var _ cron.Schedule = neverSchedule{}

func TestTicks_ExhaustedSchedule(t *testing.T) {
	s := seq.New[time.Time](&tickProducer{sched: neverSchedule{}, now: time.Now})
	r, err := s.Pull(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !r.Done {
		t.Errorf("expected Done, got %+v", r)
	}
}
