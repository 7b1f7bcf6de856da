// Package session keeps running games in memory.
//
// Each session owns its own engine, the preset it was created with and a
// seeded piece picker. IDs are four lowercase hex characters generated from
// crypto/rand, and lookups ignore case. Sessions are not persisted; a
// restart starts from an empty manager.
//
// Usage:
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", preset)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Remove sessions idle for more than a day
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
//
// The manager guards its map with its own lock. The engine inside a session
// is not safe for concurrent use; the game service serializes access to it.
package session
