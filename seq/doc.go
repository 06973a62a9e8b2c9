// Package seq provides a lazy, pull-based sequence abstraction and the
// operators built on it.
//
// A Sequence owns exactly one Producer. Every source, whether a slice, an
// iter.Seq, a channel, an iterator or a custom Producer, is normalized into a
// Sequence, so the same operators work on all of them. Nothing runs until a
// consumer pulls; each stage pulls from its parent on demand, giving natural
// backpressure without explicit flow control.
//
// # Ownership
//
// Lazy operators take exclusive ownership of their parent. Once wrapped, the
// parent reports errors.ErrMoved if pulled directly. Only one Pull may be
// outstanding per Sequence; overlapping pulls report errors.ErrConcurrentPull.
//
// # Termination and release
//
// Termination is monotonic: after a Done result the producer is never pulled
// again and every later Pull returns Done. A producer failure is returned from
// Pull unchanged and the sequence stays failed. Producers that implement
// Close() error are closed exactly once, on Done, on failure, or when the
// consumer calls Sequence.Close. Eager operators always close their input.
//
// Close may be called from another goroutine while a Pull is in flight, for
// example on shutdown. Sources that acquire a resource (stream.From) and
// FlatMap release whatever the in-flight pull acquires once it returns; how
// quickly a blocked pull returns is up to the source and the pull's ctx.
//
// # Operators
//
// Lazy:
//
//   - Drop, Filter, Take (methods)
//   - Map, FlatMap (functions; Go has no generic methods)
//   - Tap, Concat, Batch, Throttle
//
// Eager:
//
//   - Every, Some, Find, ForEach, ToSlice (methods)
//   - Reduce, Collect (functions)
//
// # Usage
//
//	src := seq.FromSlice([]int{1, 2, 3, 4, 5})
//	evens := src.Drop(1).Filter(func(n int) bool { return n%2 == 0 })
//	squared := seq.Map(evens, func(_ context.Context, n int) (int, error) {
//	    return n * n, nil
//	})
//	out, err := squared.Take(2).ToSlice(ctx)
package seq
