// Package directory resolves human-readable channel names to channel
// identities. Resolution canonicalizes the spelling, so the rest of the
// client can compare channels by identity instead of raw strings.
package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vovakirdan/ircwire/internal/irc"
)

// channelNamespace scopes the name-based channel identities.
const channelNamespace = "ircwire:channel:"

// Canonical lowercases a channel name and strips surrounding whitespace and
// the channel marker.
func Canonical(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
}

// Normalizing resolves any non-empty channel name by canonicalizing it. The
// identity is a name-based UUID of the canonical form, so "Foo", "foo" and
// "#FOO" resolve to the same channel.
type Normalizing struct{}

// Resolve implements irc.Directory.
func (Normalizing) Resolve(_ context.Context, name string) (irc.Channel, error) {
	canonical := Canonical(name)
	if canonical == "" {
		return irc.Channel{}, fmt.Errorf("resolve %q: %w", name, irc.ErrChannelNotFound)
	}
	return irc.Channel{
		ID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(channelNamespace+canonical)).String(),
		Name: canonical,
	}, nil
}

// Fixed resolves only an allow-listed set of channels, for deployments that
// pin the channels a client may touch. Unknown names are a lookup error.
type Fixed struct {
	inner   Normalizing
	allowed map[string]struct{}
}

// NewFixed builds a Fixed directory from the given channel names.
func NewFixed(names ...string) *Fixed {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[Canonical(n)] = struct{}{}
	}
	return &Fixed{allowed: allowed}
}

// Resolve implements irc.Directory.
func (f *Fixed) Resolve(ctx context.Context, name string) (irc.Channel, error) {
	if _, ok := f.allowed[Canonical(name)]; !ok {
		return irc.Channel{}, fmt.Errorf("resolve %q: %w", name, irc.ErrChannelNotFound)
	}
	return f.inner.Resolve(ctx, name)
}

// Cached memoizes successful resolutions of an inner directory, keyed by
// canonical name. Lookup failures are not cached.
type Cached struct {
	inner irc.Directory

	mu     sync.Mutex
	byName map[string]irc.Channel
}

// NewCached wraps inner with a resolution cache.
func NewCached(inner irc.Directory) *Cached {
	return &Cached{
		inner:  inner,
		byName: make(map[string]irc.Channel),
	}
}

// Resolve implements irc.Directory.
func (c *Cached) Resolve(ctx context.Context, name string) (irc.Channel, error) {
	key := Canonical(name)

	c.mu.Lock()
	ch, ok := c.byName[key]
	c.mu.Unlock()
	if ok {
		return ch, nil
	}

	ch, err := c.inner.Resolve(ctx, name)
	if err != nil {
		return irc.Channel{}, err
	}

	c.mu.Lock()
	c.byName[key] = ch
	c.mu.Unlock()
	return ch, nil
}
