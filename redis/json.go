package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/seq"
)

// DecodeJSON maps each message payload to a T. A payload that is not valid
// JSON for T fails the sequence with an INVALID_INPUT error.
func DecodeJSON[T any](msgs *seq.Sequence[Message]) *seq.Sequence[T] {
	return seq.Map(msgs, func(_ context.Context, m Message) (T, error) {
		var v T
		if err := json.Unmarshal([]byte(m.Payload), &v); err != nil {
			return v, errors.InvalidInput("payload", fmt.Sprintf("message on %s is not valid JSON", m.Channel)).WithCause(err)
		}
		return v, nil
	})
}
