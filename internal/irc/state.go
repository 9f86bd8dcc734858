package irc

// ConnectionState is the lifecycle state of the chat connection. Exactly one
// value is held at a time and it is mutated only by the client itself, in
// response to transport events or explicit lifecycle calls.
type ConnectionState int

const (
	// Disconnected means no connection is established.
	Disconnected ConnectionState = iota
	// Connecting means the transport is being established or the
	// authentication handshake has not completed yet.
	Connecting
	// Connected means the welcome banner was received and the session is live.
	Connected
	// Disconnecting means an intentional shutdown is in progress.
	Disconnecting
	// Reconnecting means the connection dropped unexpectedly and a new
	// attempt is about to be made.
	Reconnecting
)

// String returns a human-readable representation of the connection state.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// StateChangeFunc is invoked after every connection state transition. It is
// called synchronously from inside the client and must not call back into it.
type StateChangeFunc func(old, new ConnectionState)
