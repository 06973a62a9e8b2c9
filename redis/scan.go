package redis

import (
	"context"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/seq"
)

// Scan returns the keys matching match, one per pull. An empty match scans
// every key. Keys added or removed during the scan may or may not be seen,
// following SCAN semantics.
func (c *Client) Scan(match string) *seq.Sequence[string] {
	return seq.New[string](&scanProducer{client: c, match: match, count: c.cfg.ScanCount})
}

type scanProducer struct {
	client  *Client
	match   string
	count   int64
	cursor  uint64
	page    []string
	started bool
}

func (p *scanProducer) Pull(ctx context.Context) (seq.Result[string], error) {
	for len(p.page) == 0 {
		if p.started && p.cursor == 0 {
			return seq.End[string](), nil
		}
		keys, cursor, err := p.client.rdb.Scan(ctx, p.cursor, p.match, p.count).Result()
		if err != nil {
			return seq.Result[string]{}, errors.SourceUnavailable("redis", err)
		}
		p.started = true
		p.cursor = cursor
		p.page = keys
	}
	key := p.page[0]
	p.page = p.page[1:]
	return seq.Yield(key), nil
}
