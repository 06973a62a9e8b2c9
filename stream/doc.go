// Package stream adapts chunked, resource-backed sources into sequences.
//
// A Transport hands out a Reader on demand. The reader is acquired on the
// first pull, read one chunk per pull, and released exactly once: when the
// reader reports done, when a read fails, or when the consumer closes the
// sequence early.
//
//	body, _ := os.Open("access.log")
//	lines := stream.From(stream.Lines(body))
//	defer lines.Close()
//	first, err := lines.Take(10).ToSlice(ctx)
//
// ToReader goes the other way and exposes a byte sequence as an io.ReadCloser
// that pulls only when its buffer runs empty.
package stream
