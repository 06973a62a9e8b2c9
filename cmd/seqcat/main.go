// Command seqcat prints, or serves as server-sent events, the lines of the
// files matching one or more glob patterns.
//
// Usage:
//
//	seqcat [flags] <pattern>...
//
// Patterns use doublestar syntax ("logs/**/*.log"); "-" reads standard
// input. Flags:
//
//	-config string  Path to config.yml
//	-skip int       Skip the first n lines
//	-limit int      Stop after n lines (0 = no limit)
//	-match string   Only lines matching this regular expression
//	-n              Prefix lines with file:line
//	-serve          Serve GET /lines as SSE instead of printing
//	-addr string    Listen address for -serve (host:port)
//	-version        Print the version and exit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kbukum/asyncseq/logger"
	"github.com/kbukum/asyncseq/observability"
	"github.com/kbukum/asyncseq/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seqcat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "Path to config.yml")
		skip       = flag.Int("skip", 0, "Skip the first n lines")
		limit      = flag.Int("limit", 0, "Stop after n lines (0 = no limit)")
		match      = flag.String("match", "", "Only lines matching this regular expression")
		number     = flag.Bool("n", false, "Prefix lines with file:line")
		serveFlag  = flag.Bool("serve", false, "Serve GET /lines as SSE instead of printing")
		addr       = flag.String("addr", "", "Listen address for -serve (host:port)")
		showVer    = flag.Bool("version", false, "Print the version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println(version.Get())
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// Explicit flags win over file and environment values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "skip":
			cfg.Skip = *skip
		case "limit":
			cfg.Limit = *limit
		case "match":
			cfg.Match = *match
		case "n":
			cfg.Number = *number
		case "serve":
			cfg.Serve = *serveFlag
		}
	})
	if *addr != "" {
		host, port, err := net.SplitHostPort(*addr)
		if err != nil {
			return fmt.Errorf("invalid -addr: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid -addr port: %w", err)
		}
		cfg.Server.Host, cfg.Server.Port = host, p
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, shutdown, err := initTelemetry(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer shutdown()

	patterns := flag.Args()
	if len(patterns) == 0 {
		patterns = []string{stdinPath}
	}
	files, err := Expand(patterns)
	if err != nil {
		return err
	}
	sel, err := NewSelection(cfg.Skip, cfg.Limit, cfg.Match)
	if err != nil {
		return err
	}

	if cfg.Serve {
		return serve(ctx, &cfg, files, sel, metrics, log)
	}
	return printLines(ctx, files, sel, cfg.Number, log)
}

func printLines(ctx context.Context, files []string, sel Selection, number bool, log *logger.Logger) error {
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	return Lines(files, sel, log).ForEach(ctx, func(_ context.Context, l Line) error {
		var err error
		if number {
			_, err = fmt.Fprintf(out, "%s:%d:%s\n", l.File, l.N, l.Text)
		} else {
			_, err = fmt.Fprintln(out, l.Text)
		}
		return err
	})
}

// initTelemetry installs OTLP exporters when tracing is enabled.
func initTelemetry(ctx context.Context, cfg observability.Config, log *logger.Logger) (*observability.Metrics, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	mp, err := observability.InitMeter(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, nil, err
	}
	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
		return nil, nil, err
	}
	shutdown := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", logger.ErrorFields("shutdown", err))
		}
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Warn("meter shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}
	return metrics, shutdown, nil
}
