// Package server hosts sequence sinks over HTTP.
//
// Server wraps a Gin engine behind an h2c handler so SSE streams can be
// served over HTTP/2 cleartext as well as HTTP/1.1. ApplyDefaults installs
// recovery, request IDs and request logging, and registers /health and a
// Prometheus /metrics endpoint:
//
//	srv := server.New(cfg, log)
//	srv.ApplyDefaults("seqcat", registry)
//	srv.GinEngine().GET("/lines", sse.Handler(open))
//	if err := srv.Start(ctx); err != nil { ... }
//	defer srv.Stop(context.Background())
package server
