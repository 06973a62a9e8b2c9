package seq

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/asyncseq/errors"
)

// countingProducer yields 0..limit-1 and records how often it was pulled
// and closed. limit < 0 means unbounded.
type countingProducer struct {
	limit    int
	pulls    int
	closes   int
	closeErr error
}

func (p *countingProducer) Pull(_ context.Context) (Result[int], error) {
	p.pulls++
	if p.limit >= 0 && p.pulls > p.limit {
		return End[int](), nil
	}
	return Yield(p.pulls - 1), nil
}

func (p *countingProducer) Close() error {
	p.closes++
	return p.closeErr
}

func TestSequence_PullAfterDoneDoesNotReachProducer(t *testing.T) {
	ctx := context.Background()
	p := &countingProducer{limit: 1}
	s := New[int](p)

	if r, err := s.Pull(ctx); err != nil || r.Done || r.Value != 0 {
		t.Fatalf("first pull = %+v, %v", r, err)
	}
	for i := 0; i < 3; i++ {
		r, err := s.Pull(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Done {
			t.Fatalf("pull %d: expected Done, got %+v", i, r)
		}
	}
	if p.pulls != 2 {
		t.Errorf("producer pulled %d times, want 2", p.pulls)
	}
	if p.closes != 1 {
		t.Errorf("producer closed %d times, want 1", p.closes)
	}
}

func TestSequence_ErrorIsSticky(t *testing.T) {
	boom := stderrors.New("boom")
	calls := 0
	s := FromFunc(func(context.Context) (Result[int], error) {
		calls++
		return Result[int]{}, boom
	})

	for i := 0; i < 2; i++ {
		if _, err := s.Pull(context.Background()); !stderrors.Is(err, boom) {
			t.Fatalf("pull %d: expected boom, got %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("producer called %d times, want 1", calls)
	}
}

func TestSequence_ReleaseErrorAtDone(t *testing.T) {
	releaseErr := stderrors.New("release failed")
	s := New[int](&countingProducer{limit: 0, closeErr: releaseErr})

	_, err := s.Pull(context.Background())
	if !stderrors.Is(err, releaseErr) {
		t.Fatalf("expected release error, got %v", err)
	}
}

func TestSequence_ReleaseErrorJoinedWithFailure(t *testing.T) {
	boom := stderrors.New("boom")
	releaseErr := stderrors.New("release failed")
	s := New[int](&failingCloser{err: boom, closeErr: releaseErr})

	_, err := s.Pull(context.Background())
	if !stderrors.Is(err, boom) || !stderrors.Is(err, releaseErr) {
		t.Fatalf("expected both errors, got %v", err)
	}
}

type failingCloser struct {
	err      error
	closeErr error
}

func (p *failingCloser) Pull(context.Context) (Result[int], error) { return Result[int]{}, p.err }
func (p *failingCloser) Close() error                              { return p.closeErr }

func TestSequence_CloseIsIdempotent(t *testing.T) {
	p := &countingProducer{limit: -1}
	s := New[int](p)

	if _, err := s.Pull(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if p.closes != 1 {
		t.Errorf("closed %d times, want 1", p.closes)
	}

	r, err := s.Pull(context.Background())
	if err != nil || !r.Done {
		t.Errorf("pull after close = %+v, %v; want Done", r, err)
	}
	if p.pulls != 1 {
		t.Errorf("producer pulled %d times after close, want 1 total", p.pulls)
	}
}

func TestSequence_MovedParent(t *testing.T) {
	parent := Of(1, 2, 3)
	child := parent.Take(2)

	_, err := parent.Pull(context.Background())
	if !stderrors.Is(err, errors.ErrMoved) {
		t.Fatalf("expected ErrMoved, got %v", err)
	}

	// The child still works and owns the parent.
	got, err := child.ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("got %v, want [1 2]", got)
	}
}

func TestSequence_WrapTwice(t *testing.T) {
	parent := Of(1, 2, 3)
	_ = parent.Drop(1)
	second := parent.Filter(func(int) bool { return true })

	_, err := second.Pull(context.Background())
	if !stderrors.Is(err, errors.ErrMoved) {
		t.Fatalf("expected ErrMoved, got %v", err)
	}
}

func TestSequence_ConcurrentPull(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	s := FromFunc(func(context.Context) (Result[int], error) {
		close(entered)
		<-release
		return Yield(1), nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := s.Pull(context.Background()); err != nil {
			t.Errorf("first pull: %v", err)
		}
	}()

	<-entered
	_, err := s.Pull(context.Background())
	close(release)
	wg.Wait()

	if !stderrors.Is(err, errors.ErrConcurrentPull) {
		t.Fatalf("expected ErrConcurrentPull, got %v", err)
	}
}

func TestSequence_Next(t *testing.T) {
	s := Of("a")
	v, ok, err := s.Next(context.Background())
	if err != nil || !ok || v != "a" {
		t.Fatalf("Next = %q, %v, %v", v, ok, err)
	}
	_, ok, err = s.Next(context.Background())
	if err != nil || ok {
		t.Fatalf("expected exhaustion, got ok=%v err=%v", ok, err)
	}
}

func TestSequence_AllBreakCloses(t *testing.T) {
	p := &countingProducer{limit: -1}
	s := New[int](p)

	var got []int
	for v, err := range s.All(context.Background()) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	if !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("got %v", got)
	}
	if p.closes != 1 {
		t.Errorf("closed %d times, want 1", p.closes)
	}
}

func TestSequence_AllYieldsError(t *testing.T) {
	boom := stderrors.New("boom")
	s := FromSeq2(func(yield func(int, error) bool) {
		if !yield(1, nil) {
			return
		}
		yield(0, boom)
	})

	var got []int
	var gotErr error
	for v, err := range s.All(context.Background()) {
		if err != nil {
			gotErr = err
			continue
		}
		got = append(got, v)
	}
	if !slices.Equal(got, []int{1}) || !stderrors.Is(gotErr, boom) {
		t.Errorf("got %v, %v", got, gotErr)
	}
}

func TestSequence_ContextCancellation(t *testing.T) {
	ch := make(chan int)
	s := FromChan(ch)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Pull(ctx)
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSequence_IDsAreUnique(t *testing.T) {
	a, b := Empty[int](), Empty[int]()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("ids %q and %q", a.ID(), b.ID())
	}
}
