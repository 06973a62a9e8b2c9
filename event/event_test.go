package event

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/kbukum/asyncseq/logger"
)

func msg(name, id string) Message { return Message{Name: name, ID: id} }

func ids(t *testing.T, evs []Event) []string {
	t.Helper()
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		m, ok := ev.(Message)
		if !ok {
			t.Fatalf("unexpected event type %T", ev)
		}
		out = append(out, m.ID)
	}
	return out
}

func TestFrom_BufferedOrder(t *testing.T) {
	em := NewEmitter()
	s := From(em, "data", WithLogger(logger.Nop()))
	defer s.Close()

	em.Dispatch(msg("data", "e1"))
	em.Dispatch(msg("data", "e2"))

	ctx := context.Background()
	var got []Event
	for i := 0; i < 2; i++ {
		ev, ok, err := s.Next(ctx)
		if err != nil || !ok {
			t.Fatalf("pull %d: ok=%v err=%v", i, ok, err)
		}
		got = append(got, ev)
	}
	if !slices.Equal(ids(t, got), []string{"e1", "e2"}) {
		t.Errorf("got %v", ids(t, got))
	}
}

func TestFrom_AbortDiscardsBuffered(t *testing.T) {
	em := NewEmitter()
	s := From(em, "data", WithAbortEvent("end"), WithLogger(logger.Nop()))

	em.Dispatch(msg("other", "x"))
	em.Dispatch(msg("data", "e1"))
	em.Dispatch(msg("end", ""))

	got, err := s.ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// The abort event ends the sequence before the buffered event is pulled.
	if len(got) != 0 {
		t.Errorf("got %v after abort", ids(t, got))
	}
}

func TestFrom_SeesEventsBeforeOrdinaryListeners(t *testing.T) {
	em := NewEmitter()
	var s interface {
		Next(context.Context) (Event, bool, error)
	}
	var seen []string
	em.AddListener("data", func(Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		ev, ok, err := s.Next(ctx)
		if err != nil || !ok {
			t.Errorf("event not buffered before ordinary listener ran: %v, %v", ok, err)
			return
		}
		seen = append(seen, ev.(Message).ID)
	}, ListenerOptions{})

	src := From(em, "data", WithLogger(logger.Nop()))
	defer src.Close()
	s = src

	em.Dispatch(msg("data", "e1"))
	if !slices.Equal(seen, []string{"e1"}) {
		t.Errorf("seen %v, want [e1]", seen)
	}
}

func TestFrom_AbortEvent(t *testing.T) {
	em := NewEmitter()
	s := From(em, "data", WithAbortEvent("end"), WithLogger(logger.Nop()))
	ctx := context.Background()

	em.Dispatch(msg("data", "e1"))
	ev, ok, err := s.Next(ctx)
	if err != nil || !ok || ev.(Message).ID != "e1" {
		t.Fatalf("first pull = %v, %v, %v", ev, ok, err)
	}

	em.Dispatch(msg("end", ""))
	r, err := s.Pull(ctx)
	if err != nil || !r.Done {
		t.Fatalf("expected Done after abort event, got %+v, %v", r, err)
	}

	em.Dispatch(msg("data", "late"))
	if n := em.ListenerCount("data"); n != 0 {
		t.Errorf("%d data listeners still registered after abort", n)
	}
	if n := em.ListenerCount("end"); n != 0 {
		t.Errorf("%d abort listeners still registered after abort", n)
	}
	r, err = s.Pull(ctx)
	if err != nil || !r.Done {
		t.Errorf("expected Done, got %+v, %v", r, err)
	}
}

func TestFrom_AbortWakesWaitingPull(t *testing.T) {
	em := NewEmitter()
	s := From(em, "data", WithAbortEvent("end"), WithLogger(logger.Nop()))

	done := make(chan bool, 1)
	go func() {
		r, err := s.Pull(context.Background())
		done <- err == nil && r.Done
	}()

	time.Sleep(10 * time.Millisecond)
	em.Dispatch(msg("end", ""))

	select {
	case ok := <-done:
		if !ok {
			t.Error("expected Done")
		}
	case <-time.After(time.Second):
		t.Fatal("pull was not woken by abort")
	}
}

func TestFrom_DispatchWakesWaitingPull(t *testing.T) {
	em := NewEmitter()
	s := From(em, "data", WithLogger(logger.Nop()))
	defer s.Close()

	got := make(chan Event, 1)
	go func() {
		ev, _, _ := s.Next(context.Background())
		got <- ev
	}()

	time.Sleep(10 * time.Millisecond)
	em.Dispatch(msg("data", "e1"))

	select {
	case ev := <-got:
		if ev.(Message).ID != "e1" {
			t.Errorf("got %v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("pull was not woken by dispatch")
	}
}

func TestFrom_AbortSignal(t *testing.T) {
	em := NewEmitter()
	ctrl := NewAbortController()
	s := From(em, "data", WithAbortSignal(ctrl.Signal()), WithLogger(logger.Nop()))

	em.Dispatch(msg("data", "e1"))
	ctrl.Abort(nil)
	em.Dispatch(msg("data", "e2"))

	r, err := s.Pull(context.Background())
	if err != nil || !r.Done {
		t.Fatalf("expected Done, got %+v, %v", r, err)
	}
	if !errors.Is(ctrl.Signal().Reason(), ErrAborted) {
		t.Errorf("reason = %v", ctrl.Signal().Reason())
	}
}

func TestFrom_ContextSignal(t *testing.T) {
	em := NewEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	s := From(em, "data", WithAbortSignal(ContextSignal(ctx)), WithLogger(logger.Nop()))

	cancel()
	deadline := time.After(time.Second)
	for em.ListenerCount("data") != 0 {
		select {
		case <-deadline:
			t.Fatal("listener not removed after context cancellation")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	r, err := s.Pull(context.Background())
	if err != nil || !r.Done {
		t.Fatalf("expected Done, got %+v, %v", r, err)
	}
}

func TestFrom_PullContextCancelled(t *testing.T) {
	em := NewEmitter()
	s := From(em, "data", WithLogger(logger.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Pull(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFrom_CloseStopsBuffering(t *testing.T) {
	em := NewEmitter()
	s := From(em, "data", WithLogger(logger.Nop()))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	em.Dispatch(msg("data", "late"))
	if n := em.ListenerCount("data"); n != 0 {
		t.Errorf("%d listeners after close", n)
	}
}

func TestFrom_BoundedBufferDropsOldest(t *testing.T) {
	em := NewEmitter()
	s := From(em, "data", WithBuffer(2), WithAbortEvent("end"), WithLogger(logger.Nop()))
	ctx := context.Background()

	for _, id := range []string{"e1", "e2", "e3"} {
		em.Dispatch(msg("data", id))
	}
	var got []Event
	for i := 0; i < 2; i++ {
		ev, _, err := s.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, ev)
	}
	if !slices.Equal(ids(t, got), []string{"e2", "e3"}) {
		t.Errorf("got %v", ids(t, got))
	}
	em.Dispatch(msg("end", ""))
}

func TestEmitter_CaptureOrderAndOnce(t *testing.T) {
	em := NewEmitter()
	var order []string
	em.AddListener("x", func(Event) { order = append(order, "bubble") }, ListenerOptions{})
	em.AddListener("x", func(Event) { order = append(order, "capture") }, ListenerOptions{Capture: true})
	em.AddListener("x", func(Event) { order = append(order, "once") }, ListenerOptions{Once: true})

	em.Dispatch(msg("x", ""))
	em.Dispatch(msg("x", ""))

	want := []string{"capture", "bubble", "once", "capture", "bubble"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestEmitter_AbortedSignalNotAdded(t *testing.T) {
	em := NewEmitter()
	ctrl := NewAbortController()
	ctrl.Abort(errors.New("gone"))
	em.AddListener("x", func(Event) {}, ListenerOptions{Signal: ctrl.Signal()})
	if em.ListenerCount("x") != 0 {
		t.Error("listener added with aborted signal")
	}
}

func TestAbortSignal_StopAndLateRegistration(t *testing.T) {
	ctrl := NewAbortController()
	calls := 0
	stop := ctrl.Signal().OnAbort(func() { calls++ })
	if !stop() {
		t.Error("stop should report the handler was registered")
	}
	ctrl.Abort(nil)
	if calls != 0 {
		t.Errorf("stopped handler ran %d times", calls)
	}

	late := 0
	ctrl.Signal().OnAbort(func() { late++ })
	if late != 1 {
		t.Errorf("late handler ran %d times, want 1", late)
	}
	ctrl.Abort(nil)
	if late != 1 {
		t.Error("second Abort must have no effect")
	}
}
