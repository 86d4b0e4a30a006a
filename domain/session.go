package domain

// State is a SessionManager lifecycle state.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateResolving       State = "resolving"
	StateAuthenticated   State = "authenticated"
	StateLoggingOut      State = "logging_out"
)

// Event is published to the navigation layer on every state change.
type Event struct {
	State State `json:"state"`
	// Resolved is set only when State is StateAuthenticated.
	Resolved *Resolved `json:"resolved,omitempty"`
	// ResetNavigation asks the navigation layer to remount a fresh dashboard.
	ResetNavigation bool   `json:"reset_navigation,omitempty"`
	Generation      uint64 `json:"generation"`
}
