// Package websocket pushes live puzzle updates to browsers and other watchers.
//
// A single Hub owns every connection. Clients subscribe to one session by
// ID; after each mutating REST call the API layer asks the hub to broadcast
// the new game state to that session's subscribers. Clients never send
// commands over the socket; inbound frames only keep the connection alive.
//
// Outgoing frames carry one JSON Message each:
//
//	{"session_id":"a1b2","event":"state_update","game_state":{...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//	hub.ServeWS(w, r, sessionID)
package websocket
