// Package api provides the HTTP REST API for Blockfall sessions.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic"}, body optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Session info with its current snapshot
//   - DELETE /api/sessions/{id} - Delete a session and stop its clock
//
// Game operations:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - POST /api/sessions/{id}/intent - {"intent": "none|down|left|right"}
//   - POST /api/sessions/{id}/rotate - Request a rotation for the next tick
//   - POST /api/sessions/{id}/lock - Lock a landed piece and spawn the next one
//   - POST /api/sessions/{id}/tick - {"count": N}, 1 to 100 ticks
//   - POST /api/sessions/{id}/reset - Start the session over
//   - GET /api/sessions/{id}/history - Paginated events (?page&limit&order&type)
//
// Clock:
//   - POST /api/sessions/{id}/start - {"interval_ms": N}, defaults to the preset interval
//   - POST /api/sessions/{id}/stop
//
// Presets:
//   - GET /api/configs, POST /api/configs, GET /api/configs/{name}
//
// Other:
//   - GET /api/health
//   - GET /ws?session={id} - WebSocket with snapshot pushes and action input
//
// Every mutation broadcasts the new snapshot to the session's WebSocket
// clients. Errors are returned as {"error": "..."} with 404 for unknown
// sessions or presets, 400 for bad input, 409 when the game is over or the
// clock is already running, and 500 otherwise.
package api
