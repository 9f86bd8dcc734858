package config

import "time"

// Config holds client configuration values.
type Config struct {
	// ServerURL is the WebSocket endpoint of the chat service.
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	// ServerName is the service host name as it appears in keep-alive pongs.
	ServerName string `mapstructure:"server_name" yaml:"server_name"`
	// Token is the chat credential. A JWT token also carries the identity.
	Token string `mapstructure:"token" yaml:"token"`
	// Identity is the login name the token authenticates.
	Identity     string        `mapstructure:"identity" yaml:"identity"`
	Capabilities []string      `mapstructure:"capabilities" yaml:"capabilities"`
	Channels     []string      `mapstructure:"channels" yaml:"channels"`
	RosterPath   string        `mapstructure:"roster_path" yaml:"roster_path"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:    "wss://irc-ws.chat.twitch.tv:443",
		ServerName:   "tmi.twitch.tv",
		Capabilities: []string{"twitch.tv/membership", "twitch.tv/tags", "twitch.tv/commands"},
		RosterPath:   "ircwire.db",
		LogLevel:     "info",
		DialTimeout:  10 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.ServerName != "" {
		c.ServerName = other.ServerName
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.Identity != "" {
		c.Identity = other.Identity
	}
	if len(other.Capabilities) != 0 {
		c.Capabilities = other.Capabilities
	}
	if len(other.Channels) != 0 {
		c.Channels = other.Channels
	}
	if other.RosterPath != "" {
		c.RosterPath = other.RosterPath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
}
