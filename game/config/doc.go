// Package config loads game presets.
//
// A preset is a small JSON file in the configs directory that controls how a
// session plays: how fast the server clock ticks, whether landed pieces lock
// on their own, the random seed for piece selection and the first piece.
// The 14x16 grid and the seven piece kinds are fixed and not configurable.
//
//	{
//	  "name": "classic",
//	  "description": "Manual locking, 100ms ticks",
//	  "tick_interval_ms": 100,
//	  "auto_lock": false
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	preset, err := manager.LoadConfig("relaxed")
//
// When the directory has no valid preset the manager falls back to a
// built-in "classic" preset.
package config
