package irc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fakeTransport is an in-memory Transport. Connect synchronously reports the
// opened event; dropConn simulates an unexpected server-side closure.
type fakeTransport struct {
	mu          sync.Mutex
	handler     TransportHandler
	sent        []string
	dials       int
	failConnect bool
}

func (f *fakeTransport) Connect(_ context.Context, h TransportHandler) error {
	f.mu.Lock()
	f.handler = h
	f.dials++
	fail := f.failConnect
	f.mu.Unlock()

	if fail {
		return errors.New("dial refused")
	}
	h.TransportOpened(nil)
	return nil
}

func (f *fakeTransport) Send(_ context.Context, line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, line)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h.TransportClosed(false)
	}
	return nil
}

// deliver feeds one inbound line to the bound handler.
func (f *fakeTransport) deliver(line string) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h.TransportLine(line)
}

// dropConn simulates an unexpected closure of the connection.
func (f *fakeTransport) dropConn() {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h.TransportClosed(true)
}

func (f *fakeTransport) sentLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTransport) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

// fakeCreds returns a fixed credential, or an error when unset.
type fakeCreds struct {
	cred Credential
	err  error
}

func (f fakeCreds) ChatCredential(context.Context) (Credential, error) {
	if f.err != nil {
		return Credential{}, f.err
	}
	return f.cred, nil
}

// fakeDirectory resolves by lowercasing and stripping the channel marker,
// deriving the identity from the canonical name so differing spellings of
// the same channel compare equal. Names listed in missing fail to resolve.
type fakeDirectory struct {
	missing map[string]bool
}

func (f fakeDirectory) Resolve(_ context.Context, name string) (Channel, error) {
	canonical := strings.ToLower(strings.TrimPrefix(name, "#"))
	if f.missing[canonical] {
		return Channel{}, ErrChannelNotFound
	}
	return Channel{
		ID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte("test:channel:"+canonical)).String(),
		Name: canonical,
	}, nil
}

// recorder collects dispatched lines and state transitions.
type recorder struct {
	mu     sync.Mutex
	lines  []string
	states []ConnectionState
}

func (r *recorder) dispatch(line string, _ *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recorder) stateChange(_, next ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, next)
}

func (r *recorder) dispatched() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

func (r *recorder) transitions() []ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ConnectionState, len(r.states))
	copy(out, r.states)
	return out
}

const testIdentity = "gopher"

// newTestClient wires a client against the fakes with a working credential.
func newTestClient(t *testing.T) (*Client, *fakeTransport, *recorder) {
	t.Helper()
	return newTestClientWithCreds(t, fakeCreds{cred: Credential{Token: "secret", Identity: testIdentity}})
}

func newTestClientWithCreds(t *testing.T, creds CredentialSource) (*Client, *fakeTransport, *recorder) {
	t.Helper()

	transport := &fakeTransport{}
	rec := &recorder{}

	client := NewClient(transport, creds, fakeDirectory{}, DispatcherFunc(rec.dispatch), Options{
		ServerName:    "tmi.twitch.tv",
		Capabilities:  []string{"twitch.tv/membership", "twitch.tv/tags", "twitch.tv/commands"},
		OnStateChange: rec.stateChange,
	}, newNopLogger())

	return client, transport, rec
}

func newNopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// welcomeBanner is the line that completes the handshake for testIdentity.
func welcomeBanner() string {
	return ":tmi.twitch.tv 001 " + testIdentity + " :Welcome, GLHF!"
}

// waitFor polls cond until it holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

// countPrefix counts sent lines starting with prefix.
func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
