package main

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/asyncseq/errors"
	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/observability"
	"github.com/kbukum/asyncseq/seq"
	"github.com/kbukum/asyncseq/server"
	"github.com/kbukum/asyncseq/sse"
)

// linesHandler streams the selected lines as SSE. The skip, limit and match
// query parameters override sel for one request; every request reads the
// files afresh.
func linesHandler(files []string, sel Selection, instrument []observability.InstrumentOption, log *logger.Logger) gin.HandlerFunc {
	open := func(c *gin.Context) (*seq.Sequence[Line], error) {
		reqSel, err := selectionFromQuery(c, sel)
		if err != nil {
			return nil, err
		}
		return observability.Instrument(Lines(files, reqSel, log), "lines", instrument...), nil
	}
	return sse.Handler(open, sse.WithHandlerLogger[Line](log))
}

func selectionFromQuery(c *gin.Context, base Selection) (Selection, error) {
	sel := base
	for name, dst := range map[string]*int{"skip": &sel.Skip, "limit": &sel.Limit} {
		raw, ok := c.GetQuery(name)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return sel, errors.InvalidInput(name, "must be a non-negative integer")
		}
		*dst = v
	}
	if match, ok := c.GetQuery("match"); ok {
		re, err := NewSelection(0, 0, match)
		if err != nil {
			return sel, err
		}
		sel.Match = re.Match
	}
	return sel, nil
}

// serve runs the HTTP server until ctx is done.
func serve(ctx context.Context, cfg *Config, files []string, sel Selection, metrics *observability.Metrics, log *logger.Logger) error {
	registry := prometheus.NewRegistry()
	collector := observability.NewCollector(registry)

	instrument := []observability.InstrumentOption{observability.WithCollector(collector)}
	if metrics != nil {
		instrument = append(instrument, observability.WithMetrics(metrics))
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(cfg.Name, registry)
	srv.GinEngine().GET("/lines", linesHandler(files, sel, instrument, log))

	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return srv.Stop(context.Background())
}
