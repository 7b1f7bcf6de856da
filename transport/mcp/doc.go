// Package mcp exposes Blockfall to AI agents over the Model Context Protocol.
//
// Client is a thin MCP server. Every tool is a proxy to the REST API, so an
// agent sees exactly what HTTP and WebSocket clients see:
//   - create_session, list_sessions, get_session
//   - game_state: the board as numbered text rows plus piece details
//   - set_intent, rotate, tick, lock, reset_game
//   - event_history, list_configs
//   - game_instructions, describe_cell
//
// Transport:
//
//	c := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(c.GetMCPServer())          // stdio
//	router.Handle("/mcp", c.HTTPHandler())       // streamable HTTP
package mcp
