package irc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// pingToken marks a keep-alive line from the server. Any inbound line
	// containing it is answered with a pong and consumed.
	pingToken = "PING"
	// welcomeNumeric is the protocol numeric confirming authentication.
	welcomeNumeric = "001"
)

// Options configure protocol details of the client.
type Options struct {
	// ServerName is the service host used as the pong target and to
	// recognize keep-alive echoes.
	ServerName string
	// Capabilities are requested with CAP REQ right after the transport
	// opens, before authentication.
	Capabilities []string
	// OnStateChange, when set, is invoked after every state transition.
	// It runs synchronously under the client mutex and must not call back
	// into the client.
	OnStateChange StateChangeFunc
}

// attempt carries the handshake state of one connect attempt: the identity
// the welcome banner must be addressed to, tagged with an id for log
// correlation. It is cleared once the banner arrives or the connection
// closes.
type attempt struct {
	id       string
	identity string
}

// Client owns the transport, tracks the connection state, performs the
// authentication handshake, answers keep-alive pings, and re-joins the
// membership set after every reconnect. Inbound lines it does not consume
// are handed to the Dispatcher exactly once.
type Client struct {
	transport  Transport
	creds      CredentialSource
	directory  Directory
	dispatcher Dispatcher
	opts       Options
	log        *zerolog.Logger

	// mu guards state, members and attempt. Transport events and facade
	// calls both funnel through it, so a concurrent join cannot race a
	// reconnect re-sending the membership list.
	mu      sync.Mutex
	state   ConnectionState
	members membership
	attempt *attempt
}

// NewClient wires the client to its collaborators. The transport is dialed
// lazily on Connect.
func NewClient(transport Transport, creds CredentialSource, directory Directory, dispatcher Dispatcher, opts Options, logger *zerolog.Logger) *Client {
	return &Client{
		transport:  transport,
		creds:      creds,
		directory:  directory,
		dispatcher: dispatcher,
		opts:       opts,
		log:        logger,
	}
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Channels returns a copy of the current membership set, in join order.
func (c *Client) Channels() []Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.members.snapshot()
}

// setState transitions the connection state. Callers hold mu.
func (c *Client) setState(next ConnectionState) {
	if c.state == next {
		return
	}
	prev := c.state
	c.state = next
	c.log.Debug().Str("from", prev.String()).Str("to", next.String()).Msg("connection state changed")
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(prev, next)
	}
}

// Connect initiates the transport connection. It is a no-op unless the
// client is currently Disconnected. The call is fire-and-forget: eventual
// transitions are observed through State or the OnStateChange callback.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return
	}
	c.setState(Connecting)
	c.mu.Unlock()

	c.dial(ctx)
}

// dial performs the transport connect for the current attempt. On failure
// the state falls back to Disconnected.
func (c *Client) dial(ctx context.Context) {
	if err := c.transport.Connect(ctx, c); err != nil {
		c.log.Warn().Err(err).Msg("chat connect failed")
		c.mu.Lock()
		c.setState(Disconnected)
		c.mu.Unlock()
	}
}

// Disconnect requests an intentional shutdown. It is a no-op unless
// currently Connected; the terminal Disconnected state is reached once the
// transport reports closure.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return
	}
	c.setState(Disconnecting)
	c.mu.Unlock()

	c.log.Info().Msg("disconnecting from chat")
	if err := c.transport.Close(); err != nil {
		c.log.Warn().Err(err).Msg("transport close failed")
	}
}

// Reconnect is disconnect followed by connect. Each half carries its own
// state guard, so the pieces that do not apply are skipped and the call is
// idempotent in effect.
func (c *Client) Reconnect(ctx context.Context) {
	c.Disconnect()
	c.Connect(ctx)
}

// SendCommand encodes and transmits a protocol command. Commands are only
// transmitted while Connected or Connecting (the handshake itself needs the
// Connecting window); in any other state the command is silently dropped,
// not queued and not errored.
func (c *Client) SendCommand(ctx context.Context, verb string, args ...string) {
	c.mu.Lock()
	ok := c.state == Connected || c.state == Connecting
	c.mu.Unlock()
	if !ok {
		c.log.Debug().Str("verb", verb).Msg("dropping command while not connected")
		return
	}

	line := Command{Verb: verb, Args: args}.Encode()
	if err := c.transport.Send(ctx, line); err != nil {
		c.log.Warn().Err(err).Str("verb", verb).Msg("send command failed")
	}
}

// JoinChannel resolves the name and joins the channel if it is not already a
// member. The only error it can return is a lookup failure, which leaves
// both the membership set and the wire untouched.
func (c *Client) JoinChannel(ctx context.Context, name string) error {
	ch, err := c.directory.Resolve(ctx, name)
	if err != nil {
		return fmt.Errorf("resolve channel %q: %w", name, err)
	}

	c.mu.Lock()
	added := c.members.add(ch)
	c.mu.Unlock()
	if !added {
		return nil
	}

	c.log.Debug().Str("channel", ch.Name).Msg("joining channel")
	c.SendCommand(ctx, "join", "#"+ch.Name)
	return nil
}

// PartChannel resolves the name and leaves the channel. It is a no-op when
// the channel is not a member: no command is sent and nothing is mutated.
func (c *Client) PartChannel(ctx context.Context, name string) error {
	ch, err := c.directory.Resolve(ctx, name)
	if err != nil {
		return fmt.Errorf("resolve channel %q: %w", name, err)
	}

	c.mu.Lock()
	removed := c.members.remove(ch)
	c.mu.Unlock()
	if !removed {
		return nil
	}

	c.log.Debug().Str("channel", ch.Name).Msg("leaving channel")
	c.SendCommand(ctx, "part", "#"+ch.Name)
	return nil
}

// SendMessage sends a public message to the channel. Membership is a
// client-side intention concept; the protocol does not require it to send,
// so no membership check is made.
func (c *Client) SendMessage(ctx context.Context, channelName, text string) error {
	ch, err := c.directory.Resolve(ctx, channelName)
	if err != nil {
		return fmt.Errorf("resolve channel %q: %w", channelName, err)
	}

	c.SendCommand(ctx, "privmsg", "#"+ch.Name, text)
	return nil
}

// SendPrivateMessage delivers text as a whisper. The wire framing addresses
// the command with the raw channel name and embeds the resolved name as the
// whisper recipient, matching the service's whisper mechanism.
func (c *Client) SendPrivateMessage(ctx context.Context, channelName, text string) error {
	ch, err := c.directory.Resolve(ctx, channelName)
	if err != nil {
		return fmt.Errorf("resolve channel %q: %w", channelName, err)
	}

	c.SendCommand(ctx, "privmsg", "#"+channelName, "/w", ch.Name, text)
	return nil
}

// TransportOpened runs the handshake: capability negotiation, credential
// lookup, authentication, and re-join of the whole membership set. A missing
// credential is a configuration error, not a transient one: the connection
// is closed gracefully without scheduling a reconnect.
func (c *Client) TransportOpened(headers map[string][]string) {
	c.mu.Lock()
	if c.state != Connecting {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ctx := context.Background()
	for _, capability := range c.opts.Capabilities {
		c.SendCommand(ctx, "cap req", ":"+capability)
	}

	cred, err := c.creds.ChatCredential(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("chat credential unavailable, disconnecting")
		c.mu.Lock()
		c.setState(Disconnecting)
		c.mu.Unlock()
		if cerr := c.transport.Close(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("transport close failed")
		}
		return
	}

	c.mu.Lock()
	c.attempt = &attempt{id: uuid.NewString(), identity: cred.Identity}
	attemptID := c.attempt.id
	rejoin := c.members.snapshot()
	c.mu.Unlock()

	c.log.Info().Str("attempt_id", attemptID).Str("identity", cred.Identity).Msg("authenticating")
	c.SendCommand(ctx, "pass", "oauth:"+cred.Token)
	c.SendCommand(ctx, "nick", cred.Identity)

	for _, ch := range rejoin {
		c.SendCommand(ctx, "join", "#"+ch.Name)
	}
}

// TransportLine intercepts protocol-level lines (keep-alive pings, pong
// echoes, the welcome banner) and forwards everything else to the
// dispatcher while the connection is Connecting or Connected.
func (c *Client) TransportLine(line string) {
	if strings.Contains(line, pingToken) {
		c.SendCommand(context.Background(), "pong", ":"+c.opts.ServerName)
		return
	}
	if strings.HasPrefix(line, ":"+c.opts.ServerName+" PONG") {
		return
	}

	c.mu.Lock()
	state := c.state
	var identity string
	if c.attempt != nil {
		identity = c.attempt.identity
	}
	c.mu.Unlock()

	if state == Connecting && identity != "" && strings.Contains(line, " "+welcomeNumeric+" "+identity+" ") {
		c.mu.Lock()
		c.setState(Connected)
		// The credential is not retained beyond the handshake.
		c.attempt = nil
		c.mu.Unlock()
		c.log.Info().Str("identity", identity).Msg("connected to chat")
		return
	}

	if state != Connecting && state != Connected {
		return
	}
	if c.dispatcher != nil {
		c.dispatcher.Dispatch(line, c)
	}
}

// TransportClosed finishes an intentional disconnect, or recovers from an
// unexpected drop with exactly one reconnect attempt. The attempt is
// scheduled on its own goroutine so a slow dial cannot stall the transport's
// event delivery.
func (c *Client) TransportClosed(serverInitiated bool) {
	c.mu.Lock()
	c.attempt = nil
	switch c.state {
	case Disconnecting:
		c.setState(Disconnected)
		c.mu.Unlock()
		c.log.Info().Msg("disconnected from chat")
	case Connected, Connecting:
		c.setState(Reconnecting)
		c.mu.Unlock()
		c.log.Warn().Bool("server_initiated", serverInitiated).Msg("connection lost, reconnecting")
		go c.redial()
	default:
		c.mu.Unlock()
	}
}

// redial re-runs the connect sequence after an unexpected drop.
func (c *Client) redial() {
	c.mu.Lock()
	if c.state != Reconnecting {
		c.mu.Unlock()
		return
	}
	c.setState(Connecting)
	c.mu.Unlock()

	c.dial(context.Background())
}
