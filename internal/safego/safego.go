// Package safego launches background goroutines that survive panics.
package safego

import "log/slog"

// Go runs fn in a new goroutine, recovering and logging any panic instead of
// crashing the process. Fire-and-forget work (activity shipping, background
// cleanup) goes through here so a panic never silently kills the goroutine.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
