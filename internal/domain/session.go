package domain

// SessionState represents the current state of a streaming session.
type SessionState string

const (
	// SessionStateIdle indicates no logcat subprocess is running
	SessionStateIdle SessionState = "idle"
	// SessionStateStreaming indicates logcat is running and lines are processed
	SessionStateStreaming SessionState = "streaming"
	// SessionStatePaused indicates logcat is running but incoming lines are
	// discarded (not parsed, not buffered, not counted)
	SessionStatePaused SessionState = "paused"
	// SessionStateRetrying indicates logcat exited unexpectedly and a
	// relaunch is scheduled
	SessionStateRetrying SessionState = "retrying"
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	return string(s)
}

// IsStreaming returns true if a logcat subprocess is currently attached.
func (s SessionState) IsStreaming() bool {
	return s == SessionStateStreaming || s == SessionStatePaused
}
