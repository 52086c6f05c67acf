// Package api implements the curtain skill's operations HTTP API.
//
// It is a small read-mostly surface for operators and monitoring:
//   - GET  /api/v1/health            liveness and dependency status
//   - GET  /api/v1/metrics           runtime, traffic and registry counters
//   - GET  /api/v1/devices           registry entries (?type=, ?room=)
//   - GET  /api/v1/curtains          curtain entries with validation results
//   - POST /api/v1/devices/refresh   forced registry refresh (admin token)
//   - GET  /api/v1/audit             operator audit trail (read token)
//
// Guarded routes require a bearer token minted with
// "curtainskill token" and signed with api.jwt_secret. The server is
// disabled by default and binds to loopback.
package api
