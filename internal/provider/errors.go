package provider

import "fmt"

// Error is a typed upstream explorer failure. The session manager treats it
// as transient: the failing poll tick is skipped and the next tick retries.
type Error struct {
	Provider string
	Status   int // HTTP status, 0 when the request never completed
	Message  string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s: HTTP %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}
