// Package websocket pushes live game snapshots to browsers and clients.
//
// The package uses a hub-and-spoke model where a central Hub manages all
// connections. Each connection has a read pump and a write pump goroutine.
//
// Message Protocol:
//
// Clients connect to /ws?session=<id>. The server sends one JSON object per
// line:
//
//	{"session_id":"ab12","event":"state_update","snapshot":{...}}
//
// Clients may send input, one JSON object per frame:
//
//	{"action":"left"}
//	{"action":"rotate"}
//	{"action":"lock"}
//
// Input is handed to the InputHandler installed with OnInput. Errors are sent
// back only to the client that caused them, as an "error" event.
//
// Usage:
//
//	hub := websocket.NewHub(log.Logger)
//	hub.OnInput(handleInput)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Broadcasts never block the caller: when the hub falls behind, messages are
// dropped and clients that cannot keep up are disconnected.
package websocket
