package seq

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/kbukum/asyncseq/errors"
)

func TestDropTake(t *testing.T) {
	src := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tests := []struct {
		drop, take int
		want       []int
	}{
		{0, 3, []int{0, 1, 2}},
		{2, 3, []int{2, 3, 4}},
		{8, 5, []int{8, 9}},
		{10, 2, nil},
		{3, 0, nil},
		{0, 20, src},
		{-1, 2, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("drop%d_take%d", tt.drop, tt.take), func(t *testing.T) {
			got, err := FromSlice(src).Drop(tt.drop).Take(tt.take).ToSlice(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTake_NeverPullsPastN(t *testing.T) {
	p := &countingProducer{limit: -1}
	got, err := New[int](p).Take(3).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("got %v", got)
	}
	if p.pulls != 3 {
		t.Errorf("parent pulled %d times, want 3", p.pulls)
	}
	if p.closes != 1 {
		t.Errorf("parent closed %d times, want 1", p.closes)
	}
}

func TestTake_ClosesParentAtN(t *testing.T) {
	p := &countingProducer{limit: -1}
	s := New[int](p).Take(1)

	if _, err := s.Pull(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.closes != 1 {
		t.Errorf("parent closed %d times after n-th element, want 1", p.closes)
	}
}

func TestTake_Zero(t *testing.T) {
	p := &countingProducer{limit: -1}
	r, err := New[int](p).Take(0).Pull(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !r.Done {
		t.Errorf("expected Done, got %+v", r)
	}
	if p.pulls != 0 {
		t.Errorf("parent pulled %d times, want 0", p.pulls)
	}
}

func TestFilter(t *testing.T) {
	got, err := Of(1, 2, 3, 4, 5, 6).Filter(func(n int) bool { return n%2 == 0 }).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{2, 4, 6}) {
		t.Errorf("got %v, want [2 4 6]", got)
	}
}

func TestFilter_None(t *testing.T) {
	got, err := Of(1, 3, 5).Filter(func(n int) bool { return n%2 == 0 }).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestMap(t *testing.T) {
	doubled := Map(Of(1, 2, 3), func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := doubled.ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{2, 4, 6}) {
		t.Errorf("got %v, want [2 4 6]", got)
	}
}

func TestMap_TypeConversion(t *testing.T) {
	strs := Map(Of(1, 2, 3), func(_ context.Context, n int) (string, error) {
		return fmt.Sprintf("#%d", n), nil
	})
	got, err := Collect(context.Background(), strs)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"#1", "#2", "#3"}) {
		t.Errorf("got %v", got)
	}
}

func TestMap_Error(t *testing.T) {
	bad := stderrors.New("bad value")
	p := &countingProducer{limit: -1}
	failing := Map(New[int](p), func(_ context.Context, n int) (int, error) {
		if n == 1 {
			return 0, bad
		}
		return n, nil
	})
	got, err := failing.ToSlice(context.Background())
	if !stderrors.Is(err, bad) {
		t.Fatalf("expected bad value, got %v", err)
	}
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("expected [0] before error, got %v", got)
	}
	if p.closes != 1 {
		t.Errorf("source closed %d times, want 1", p.closes)
	}
}

func TestFlatMap(t *testing.T) {
	pairs := FlatMap(Of(1, 2), func(_ context.Context, n int) (*Sequence[int], error) {
		return Of(n, n), nil
	})
	got, err := pairs.ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 1, 2, 2}) {
		t.Errorf("got %v, want [1 1 2 2]", got)
	}
}

func TestFlatMap_EmptyAndNilInner(t *testing.T) {
	expanded := FlatMap(Of(1, 2, 3, 4), func(_ context.Context, n int) (*Sequence[int], error) {
		switch n {
		case 2:
			return Empty[int](), nil
		case 3:
			return nil, nil
		}
		return Of(n * 10), nil
	})
	got, err := expanded.ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{10, 40}) {
		t.Errorf("got %v, want [10 40]", got)
	}
}

func TestFlatMap_NoInterleave(t *testing.T) {
	var order []string
	parent := Of("a", "b").Tap(func(_ context.Context, s string) error {
		order = append(order, "parent:"+s)
		return nil
	})
	flat := FlatMap(parent, func(_ context.Context, s string) (*Sequence[string], error) {
		return Of(s+"1", s+"2").Tap(func(_ context.Context, v string) error {
			order = append(order, "inner:"+v)
			return nil
		}), nil
	})
	if _, err := flat.ToSlice(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{"parent:a", "inner:a1", "inner:a2", "parent:b", "inner:b1", "inner:b2"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestFlatMap_CloseReleasesInner(t *testing.T) {
	inner := &countingProducer{limit: -1}
	outer := &countingProducer{limit: -1}
	flat := FlatMap(New[int](outer), func(context.Context, int) (*Sequence[int], error) {
		return New[int](inner), nil
	})

	got, err := flat.Take(2).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{0, 1}) {
		t.Errorf("got %v", got)
	}
	if inner.closes != 1 || outer.closes != 1 {
		t.Errorf("inner closes=%d outer closes=%d, want 1 each", inner.closes, outer.closes)
	}
}

func TestFlatMap_CloseDuringPullReleasesNewInner(t *testing.T) {
	inner := &countingProducer{limit: -1}
	entered := make(chan struct{})
	gate := make(chan struct{})
	flat := FlatMap(Of(1), func(context.Context, int) (*Sequence[int], error) {
		close(entered)
		<-gate
		return New[int](inner), nil
	})

	done := make(chan Result[int], 1)
	errc := make(chan error, 1)
	go func() {
		r, err := flat.Pull(context.Background())
		done <- r
		errc <- err
	}()

	<-entered
	if err := flat.Close(); err != nil {
		t.Fatal(err)
	}
	close(gate)
	r, err := <-done, <-errc

	if err != nil || !r.Done {
		t.Errorf("in-flight pull = %+v, %v; want Done", r, err)
	}
	if inner.closes != 1 || inner.pulls != 0 {
		t.Errorf("inner closes=%d pulls=%d, want 1 and 0", inner.closes, inner.pulls)
	}
}

func TestTap(t *testing.T) {
	var seen []int
	observed := Of(1, 2, 3).Tap(func(_ context.Context, n int) error {
		seen = append(seen, n)
		return nil
	})
	got, err := observed.ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) || !slices.Equal(seen, got) {
		t.Errorf("got %v, seen %v", got, seen)
	}
}

func TestTap_Error(t *testing.T) {
	failing := Of(1, 2, 3).Tap(func(_ context.Context, n int) error {
		if n == 2 {
			return stderrors.New("tap failed")
		}
		return nil
	})
	if _, err := failing.ToSlice(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestConcat(t *testing.T) {
	combined := Concat(Of(1, 2), Empty[int](), Of(3))
	got, err := combined.ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestConcat_ClosesAll(t *testing.T) {
	a := &countingProducer{limit: -1}
	b := &countingProducer{limit: -1}
	combined := Concat(New[int](a), New[int](b)).Take(1)
	if _, err := combined.ToSlice(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a.closes != 1 || b.closes != 1 {
		t.Errorf("a closes=%d b closes=%d, want 1 each", a.closes, b.closes)
	}
}

func TestThrottle_DropsRapidValues(t *testing.T) {
	got, err := Of(1, 2, 3, 4, 5).Throttle(time.Hour).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1}) {
		t.Errorf("expected [1], got %v", got)
	}
}

func TestThrottle_AllPassWithZeroInterval(t *testing.T) {
	got, err := Of(1, 2, 3).Throttle(0).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
}

func TestBatch_BySize(t *testing.T) {
	got, err := Batch(Of(1, 2, 3, 4, 5), 2, 0).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := [][]int{{1, 2}, {3, 4}, {5}}
	if len(got) != len(want) {
		t.Fatalf("expected %d batches, got %v", len(want), got)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("batch %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBatch_DefaultsToOne(t *testing.T) {
	got, err := Batch(Of(1, 2), 0, 0).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || len(got[0]) != 1 {
		t.Errorf("got %v", got)
	}
}

func TestBatch_PartialThenError(t *testing.T) {
	boom := stderrors.New("boom")
	src := FromSeq2(func(yield func(int, error) bool) {
		if !yield(1, nil) {
			return
		}
		yield(0, boom)
	})
	s := Batch(src, 5, 0)

	r, err := s.Pull(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(r.Value, []int{1}) {
		t.Errorf("partial batch = %v", r.Value)
	}
	if _, err := s.Pull(context.Background()); !stderrors.Is(err, boom) {
		t.Errorf("expected boom on next pull, got %v", err)
	}
}

func TestChained(t *testing.T) {
	var tapped []int
	doubled := Map(FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}), func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	observed := doubled.Filter(func(n int) bool { return n%4 == 0 }).Tap(func(_ context.Context, n int) error {
		tapped = append(tapped, n)
		return nil
	})
	sum, err := Reduce(context.Background(), observed, 0, func(_ context.Context, acc, n, _ int) (int, error) {
		return acc + n, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	// 2,4,...,20 filtered to 4,8,12,16,20
	if sum != 60 {
		t.Errorf("sum = %d, want 60", sum)
	}
	if !slices.Equal(tapped, []int{4, 8, 12, 16, 20}) {
		t.Errorf("tapped = %v", tapped)
	}
}

type doublingStage struct{ parent Stage[int] }

func (d *doublingStage) Pull(ctx context.Context) (Result[int], error) {
	r, err := d.parent.Pull(ctx)
	if err != nil || r.Done {
		return r, err
	}
	return Yield(r.Value * 2), nil
}

func (d *doublingStage) Close() error { return d.parent.Close() }

func TestAdopt(t *testing.T) {
	p := &countingProducer{limit: -1}
	parent := New[int](p)
	doubled := Adopt(parent, func(s Stage[int]) Producer[int] { return &doublingStage{parent: s} })

	if _, err := parent.Pull(context.Background()); !stderrors.Is(err, errors.ErrMoved) {
		t.Fatalf("expected ErrMoved on the adopted parent, got %v", err)
	}
	got, err := doubled.Take(3).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{0, 2, 4}) {
		t.Errorf("got %v", got)
	}
	if p.closes != 1 {
		t.Errorf("parent closed %d times, want 1", p.closes)
	}
}
