package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/ircwire/internal/auth"
	"github.com/vovakirdan/ircwire/internal/config"
	"github.com/vovakirdan/ircwire/internal/directory"
	"github.com/vovakirdan/ircwire/internal/irc"
	"github.com/vovakirdan/ircwire/internal/log"
	"github.com/vovakirdan/ircwire/internal/store"
	"github.com/vovakirdan/ircwire/internal/transport/ws"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ircwire: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:          "ircwire",
		Short:        "Interactive chat client over a WebSocket IRC gateway",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, overrides)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&overrides.ServerURL, "server", "", "WebSocket chat endpoint")
	cmd.Flags().StringVar(&overrides.ServerName, "server-name", "", "chat service host name")
	cmd.Flags().StringVar(&overrides.Token, "token", "", "chat credential token")
	cmd.Flags().StringVar(&overrides.Identity, "identity", "", "login name the token authenticates")
	cmd.Flags().StringSliceVar(&overrides.Channels, "join", nil, "channels to join at startup")
	cmd.Flags().StringVar(&overrides.RosterPath, "roster", "", "path to the roster database")
	cmd.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	return cmd
}

func run(parent context.Context, configPath string, overrides config.Config) error {
	bootLog := log.New(overrides.LogLevel)

	cfg, path, err := config.Load(bootLog, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(overrides)

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Str("server", cfg.ServerURL).Msg("starting ircwire")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	roster, err := store.Open(cfg.RosterPath)
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer roster.Close()

	creds := credentialSource(cfg)
	transport := ws.New(cfg.ServerURL, cfg.DialTimeout, log.Component(logger, "ws"))
	dir := directory.NewCached(directory.Normalizing{})
	dispatcher := irc.DispatcherFunc(func(line string, _ *irc.Client) {
		fmt.Println(line)
	})

	client := irc.NewClient(transport, creds, dir, dispatcher, irc.Options{
		ServerName:   cfg.ServerName,
		Capabilities: cfg.Capabilities,
		OnStateChange: func(old, next irc.ConnectionState) {
			logger.Debug().Str("from", old.String()).Str("to", next.String()).Msg("state change")
		},
	}, log.Component(logger, "irc"))

	client.Connect(ctx)
	if client.State() == irc.Disconnected {
		return fmt.Errorf("connect to %s failed", cfg.ServerURL)
	}

	startup, err := startupChannels(ctx, roster, cfg.Channels)
	if err != nil {
		return err
	}
	for _, name := range startup {
		if err := client.JoinChannel(ctx, name); err != nil {
			logger.Warn().Err(err).Str("channel", name).Msg("startup join failed")
		}
	}

	fmt.Println("Type messages to talk, /join /part /w /channels /quit for commands.")
	inputLoop(ctx, client, roster, logger)

	client.Disconnect()
	waitForState(client, irc.Disconnected, 3*time.Second)
	logger.Info().Msg("ircwire stopped")
	return nil
}

// credentialSource picks a JWT source when the token looks like a JWT and no
// explicit identity is configured; otherwise the static pair is used.
func credentialSource(cfg config.Config) irc.CredentialSource {
	if cfg.Identity == "" && strings.Count(cfg.Token, ".") == 2 {
		return auth.JWTSource{Token: cfg.Token}
	}
	return auth.Static{Token: cfg.Token, Identity: cfg.Identity}
}

// startupChannels merges the persisted roster with the configured channel
// list. Configured channels are added to the roster so they persist.
func startupChannels(ctx context.Context, roster *store.Roster, configured []string) ([]string, error) {
	for _, name := range configured {
		if err := roster.Add(ctx, directory.Canonical(name)); err != nil {
			return nil, fmt.Errorf("persist channel %q: %w", name, err)
		}
	}
	names, err := roster.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return names, nil
}

func inputLoop(ctx context.Context, client *irc.Client, roster *store.Roster, logger *zerolog.Logger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	active := ""
	if chs := client.Channels(); len(chs) > 0 {
		active = chs[0].Name
	}

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			switch {
			case text == "/quit":
				return
			case text == "/channels":
				for _, ch := range client.Channels() {
					fmt.Printf("#%s\n", ch.Name)
				}
			case strings.HasPrefix(text, "/join "):
				name := strings.TrimSpace(strings.TrimPrefix(text, "/join "))
				if err := client.JoinChannel(ctx, name); err != nil {
					logger.Warn().Err(err).Msg("join failed")
					continue
				}
				if err := roster.Add(ctx, directory.Canonical(name)); err != nil {
					logger.Warn().Err(err).Msg("persist join failed")
				}
				active = directory.Canonical(name)
			case strings.HasPrefix(text, "/part "):
				name := strings.TrimSpace(strings.TrimPrefix(text, "/part "))
				if err := client.PartChannel(ctx, name); err != nil {
					logger.Warn().Err(err).Msg("part failed")
					continue
				}
				if err := roster.Remove(ctx, directory.Canonical(name)); err != nil {
					logger.Warn().Err(err).Msg("persist part failed")
				}
				if active == directory.Canonical(name) {
					active = ""
				}
			case strings.HasPrefix(text, "/w "):
				rest := strings.SplitN(strings.TrimPrefix(text, "/w "), " ", 2)
				if len(rest) != 2 {
					fmt.Println("usage: /w <channel> <text>")
					continue
				}
				if err := client.SendPrivateMessage(ctx, rest[0], rest[1]); err != nil {
					logger.Warn().Err(err).Msg("whisper failed")
				}
			default:
				if active == "" {
					fmt.Println("no active channel, /join one first")
					continue
				}
				if err := client.SendMessage(ctx, active, text); err != nil {
					logger.Warn().Err(err).Msg("send failed")
				}
			}
		}
	}
}

func waitForState(client *irc.Client, want irc.ConnectionState, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if client.State() == want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}
