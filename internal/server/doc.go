// Package server exposes the parts counter over HTTP.
//
// The server wraps one Service, which owns the counting session and
// runs each upload through the detection pipeline. Routing and
// middleware use gin; every request carries an X-Request-Id header and
// is access-logged.
//
// # Routes
//
// Analysis and session management:
//   - POST /analyze: multipart image upload, returns the analysis payload
//   - GET /api/session-stats: session statistics plus the count window
//   - POST /api/reset-session: clear the session history
//   - POST /api/export-data: write a session snapshot to the exports dir
//   - GET /download/:filename: fetch a previously written export
//
// Operational:
//   - GET /api/system-health: uptime and throughput summary
//   - GET /healthz: liveness probe
//   - GET /results/...: annotated result images (static)
//   - /debug/pprof: profiling endpoints
//
// # Error Handling
//
// Handlers answer errors as ErrorResponse JSON. An upload that is
// missing, oversized or undecodable is a 400 and leaves the session
// history untouched; storage failures surface as 500.
//
// # Usage
//
// The serve command wires it together:
//
//	srv, err := server.NewServer(ctx, conf)
//	if err != nil {
//	    logrus.Fatal(err)
//	}
//	go srv.Start()
//	...
//	srv.Shutdown()
package server
