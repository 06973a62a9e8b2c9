package sse

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/kbukum/asyncseq/seq"
	"github.com/kbukum/asyncseq/stream"
)

// Decode returns a Transport that parses body as an event stream. Releasing
// the reader closes body.
func Decode(body io.ReadCloser) stream.Transport[Event] {
	return stream.Body(body, func(rc io.ReadCloser) stream.Reader[Event] {
		return &decoder{scanner: bufio.NewScanner(rc), body: rc}
	})
}

// From creates a sequence of the events in body.
func From(body io.ReadCloser, opts ...stream.Option) *seq.Sequence[Event] {
	opts = append([]stream.Option{stream.WithName("sse")}, opts...)
	return stream.From(Decode(body), opts...)
}

type decoder struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
}

func (d *decoder) Read(ctx context.Context) (Event, bool, error) {
	var event Event
	var hasData bool

	for d.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return Event{}, false, err
		}
		line := d.scanner.Text()

		// Blank line ends the event
		if line == "" {
			if hasData {
				return event, false, nil
			}
			continue
		}

		// Comment
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "data":
			if hasData {
				event.Data += "\n" + value
			} else {
				event.Data = value
				hasData = true
			}
		case "event":
			event.Event = value
		case "id":
			event.ID = value
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Event{}, false, err
	}
	if hasData {
		return event, false, nil
	}
	return Event{}, true, nil
}

func (d *decoder) Release() error {
	return d.body.Close()
}

// parseLine splits a line into field and value, dropping one leading space
// from the value.
func parseLine(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	if value != "" && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}
