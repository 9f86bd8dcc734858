package irc

import "strings"

// Command is a protocol verb with ordered argument tokens. It is immutable
// once constructed and exists only for the duration of encoding and send.
type Command struct {
	Verb string
	Args []string
}

// Encode renders the command as one protocol line: the verb folded to
// uppercase, a single space, then the arguments joined with single spaces.
// No terminator is appended; framing belongs to the transport. Argument
// content is not escaped or validated, so callers supply protocol-legal
// tokens (channel marker, trailing-text marker) themselves.
func (c Command) Encode() string {
	return strings.ToUpper(c.Verb) + " " + strings.Join(c.Args, " ")
}
