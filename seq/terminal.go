package seq

import "context"

// Reduce folds every element into an accumulator, starting from init. fn
// receives the zero-based index of the element. The sequence is closed on return.
func Reduce[T, A any](ctx context.Context, s *Sequence[T], init A, fn func(context.Context, A, T, int) (A, error)) (acc A, err error) {
	defer closeInto(s, &err)

	acc = init
	for i := 0; ; i++ {
		r, err := s.Pull(ctx)
		if err != nil {
			return acc, err
		}
		if r.Done {
			return acc, nil
		}
		acc, err = fn(ctx, acc, r.Value, i)
		if err != nil {
			return acc, err
		}
	}
}

// ToSlice pulls every element into a slice.
func (s *Sequence[T]) ToSlice(ctx context.Context) ([]T, error) {
	return Reduce(ctx, s, []T(nil), func(_ context.Context, acc []T, v T, _ int) ([]T, error) {
		return append(acc, v), nil
	})
}

// Collect pulls every element of s into a slice.
func Collect[T any](ctx context.Context, s *Sequence[T]) ([]T, error) {
	return s.ToSlice(ctx)
}

// ForEach calls fn for each element. A non-nil error from fn stops iteration
// and is returned as is.
func (s *Sequence[T]) ForEach(ctx context.Context, fn func(context.Context, T) error) (err error) {
	defer closeInto(s, &err)

	for {
		r, err := s.Pull(ctx)
		if err != nil {
			return err
		}
		if r.Done {
			return nil
		}
		if err := fn(ctx, r.Value); err != nil {
			return err
		}
	}
}

// Find returns the first element satisfying pred. The second result is false
// when no element matched. No element past the match is pulled.
func (s *Sequence[T]) Find(ctx context.Context, pred func(T) bool) (found T, ok bool, err error) {
	defer closeInto(s, &err)

	for {
		r, err := s.Pull(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if r.Done {
			var zero T
			return zero, false, nil
		}
		if pred(r.Value) {
			return r.Value, true, nil
		}
	}
}

// Some reports whether any element satisfies pred, stopping at the first match.
func (s *Sequence[T]) Some(ctx context.Context, pred func(T) bool) (bool, error) {
	_, ok, err := s.Find(ctx, pred)
	return ok, err
}

// Every reports whether all elements satisfy pred, stopping at the first
// element that does not. An empty sequence reports true.
func (s *Sequence[T]) Every(ctx context.Context, pred func(T) bool) (bool, error) {
	_, ok, err := s.Find(ctx, func(v T) bool { return !pred(v) })
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// closeInto closes s and stores the release error in *err unless an earlier
// error is already set.
func closeInto[T any](s *Sequence[T], err *error) {
	if cerr := s.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
