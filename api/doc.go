// Package api exposes the warehouse puzzle service over HTTP.
//
// All REST endpoints live under /api, return JSON and are gzip-compressed
// when the client accepts it. Every response carries an X-Request-ID header,
// echoing the caller's value or a freshly generated UUID.
//
// Sessions:
//   - POST   /api/sessions               create ({"config_id": "example"}, optional)
//   - GET    /api/sessions               list (?sort=created|accessed&order=asc|desc&limit=N&config=ID)
//   - GET    /api/sessions/{id}          session info with game state
//   - DELETE /api/sessions/{id}          delete
//
// Play:
//   - GET  /api/sessions/{id}/state      current game state
//   - POST /api/sessions/{id}/move       {"direction": "up|down|left|right|^|v|<|>", "reset": false}
//   - POST /api/sessions/{id}/bulk-move  {"moves": ["up", ...]} or {"script": "<^^>"}
//   - POST /api/sessions/{id}/run        {"limit": 0, "trace": false} advances the puzzle's own script
//   - POST /api/sessions/{id}/reset      restore the initial layout
//   - GET  /api/sessions/{id}/history    ?page=1&limit=20&order=desc
//
// Puzzles:
//   - GET  /api/configs                  library listing
//   - GET  /api/configs/{name}           one puzzle
//   - POST /api/configs                  save ({"name", "layout", "moves", "wide", "filename"})
//   - POST /api/simulate                 run a puzzle to completion without a session
//   - GET  /api/health
//
// A blocked push is a normal outcome and returns 200 with success=false.
// Errors use the body {"error": "...", "code": N}: 400 for malformed input,
// 404 for unknown sessions or puzzles, 409 for ID clashes.
//
// GET /ws?session={id} upgrades to a WebSocket that receives a state_update
// message after every mutation of that session.
package api
