// Package service provides the business logic layer for Blockfall.
//
// The service package implements:
//   - Multi-session game management
//   - Intent, rotation, lock and tick operations on a session's engine
//   - Random piece selection after every lock
//   - Auto-locking for presets that ask for it
//   - A paginated per-session event history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager loads and saves presets.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP, the
// server clock) and the engine. Engines are not safe for concurrent use, so
// every operation runs under the service lock; reads share it.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_, _ = gameService.SetIntent(ctx, info.ID, "left")
//	result, err := gameService.Tick(ctx, info.ID, 1)
//
// A game that is over keeps its final state. Operations that would change
// it return ErrGameOver until the session is reset.
package service
