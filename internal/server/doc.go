// Package server exposes the valuation engine over HTTP.
//
// The server is a thin transport: it decodes a submission, hands it to a
// pipeline.Assembler and encodes the report. It optionally stores every
// report so the compare command can show how a browser changed over time.
//
// Routes:
//
//	GET  /healthz                     liveness probe
//	POST /api/v1/valuations           value one submission
//	GET  /api/v1/reports/{reportID}   fetch a stored report (requires a store)
package server
