// Package sse connects sequences to Server-Sent Events.
//
// From decodes an event stream body into a sequence of Events, one event per
// pull. Handler serves a sequence to an HTTP client through gin: each time the
// connection is ready for more data exactly one element is pulled, encoded and
// flushed, so a slow client slows the producer down.
//
//	r := gin.New()
//	r.GET("/lines", sse.Handler(func(c *gin.Context) (*seq.Sequence[string], error) {
//	    return stream.From(stream.Lines(file)), nil
//	}))
package sse
