// Package engine implements the rules of a falling-block puzzle on a fixed
// 14x16 grid.
//
// The engine owns the settled pile, the falling piece and the score. A piece
// is an anchor, a rotation counter and a kind; its four cells are always
// derived from the shape table and never stored on their own.
//
// Every call to AdvanceTick runs the same pipeline:
//
//   - apply the pending intent, checking only the walls
//   - derive the cells for the requested rotation
//   - roll back a move that entered the pile
//   - lift the piece until it is clear of the pile
//   - push the piece back inside the walls and above the floor
//   - mark the game over when the pile reaches the row above the grid
//   - clear complete rows, 1000 points each
//
// Locking is never automatic. The caller asks for it with RequestLock and,
// when it succeeds, chooses the next kind and applies it with SetKind:
//
//	e := engine.NewEngineWithDefaults()
//	_ = e.SetIntent(engine.IntentDown)
//	for !e.Landed() {
//		if err := e.AdvanceTick(); err != nil {
//			return err
//		}
//	}
//	if e.RequestLock() {
//		_ = e.SetKind(engine.KindT)
//	}
//
// A GameEngine is not safe for concurrent use; the service layer serializes
// access per session.
package engine
