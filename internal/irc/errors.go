package irc

import "errors"

var (
	// ErrNoCredential is returned by a CredentialSource when no chat
	// credential is configured. The client treats it as a configuration
	// error: the current connect attempt is aborted gracefully and no
	// reconnect is scheduled.
	ErrNoCredential = errors.New("no chat credential available")

	// ErrChannelNotFound is returned by a Directory for a name it cannot
	// resolve.
	ErrChannelNotFound = errors.New("channel not found")
)
