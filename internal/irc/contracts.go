package irc

import "context"

// Transport is an abstract bidirectional text-line connection to the chat
// service. Implementations deliver lifecycle notifications and inbound lines
// through the TransportHandler bound at Connect time, from whatever goroutine
// they read on.
type Transport interface {
	// Connect establishes the connection and binds the handler.
	Connect(ctx context.Context, h TransportHandler) error
	// Send writes one protocol line. Terminators are the transport's concern.
	Send(ctx context.Context, line string) error
	// Close tears the connection down. The bound handler still receives
	// TransportClosed afterwards.
	Close() error
}

// TransportHandler receives transport lifecycle and message notifications.
type TransportHandler interface {
	TransportOpened(headers map[string][]string)
	TransportLine(line string)
	TransportClosed(serverInitiated bool)
}

// Credential is an opaque authentication token plus the identity it belongs
// to. It is fetched fresh for every connect attempt and not retained beyond
// the handshake.
type Credential struct {
	Token    string
	Identity string
}

// CredentialSource supplies the chat credential on demand. Implementations
// return ErrNoCredential when none is configured.
type CredentialSource interface {
	ChatCredential(ctx context.Context) (Credential, error)
}

// Channel is a resolved chat-topic identity. Equality is by ID, so repeated
// resolutions of the same logical channel compare equal regardless of the
// spelling used to look them up.
type Channel struct {
	ID   string
	Name string
}

// Directory resolves a human-readable channel name to its identity.
// Unresolvable names surface as an error wrapping ErrChannelNotFound.
type Directory interface {
	Resolve(ctx context.Context, name string) (Channel, error)
}

// Dispatcher consumes inbound protocol lines the client does not handle
// itself, i.e. everything except keep-alive pings, their echoes, and the
// welcome banner.
type Dispatcher interface {
	Dispatch(line string, c *Client)
}

// DispatcherFunc adapts a plain function to the Dispatcher interface.
type DispatcherFunc func(line string, c *Client)

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(line string, c *Client) { f(line, c) }
