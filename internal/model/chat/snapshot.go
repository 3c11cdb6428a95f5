package chat

// Snapshot is a read-only copy of a conversation handed to renderers.
// Version grows with every state change; a renderer holding a newer
// version must ignore older ones.
type Snapshot struct {
	SessionID string    `json:"sessionId"`
	Version   uint64    `json:"version"`
	Messages  []Message `json:"messages"`
	Draft     string    `json:"draft"`
	Busy      bool      `json:"busy"`
	LastError string    `json:"lastError,omitempty"`
}

// CanSend reports whether the send control should be enabled.
func (s Snapshot) CanSend() bool {
	return !s.Busy
}

// NewerThan reports whether s reflects a later state than other.
func (s Snapshot) NewerThan(other Snapshot) bool {
	return s.Version > other.Version
}
