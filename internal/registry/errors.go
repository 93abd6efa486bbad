package registry

import "errors"

var (
	// ErrSessionNotFound names the unknown-ID condition. Get reports an
	// unknown ID through its bool result and Delete ignores one; neither
	// returns this error.
	ErrSessionNotFound = errors.New("registry: session not found")
	// ErrRegistryFull is returned by Create once Config.MaxSessions live
	// sessions are already registered.
	ErrRegistryFull = errors.New("registry: at capacity")
)
