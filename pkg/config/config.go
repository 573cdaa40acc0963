// Package config loads and persists the bridge configuration: a JSON file
// with TSCLAW_* environment overrides applied on top.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	OpenClaw  OpenClawConfig  `json:"openclaw"`
	TeamSpeak TeamSpeakConfig `json:"teamspeak"`
	Bridge    BridgeConfig    `json:"bridge"`
	Health    HealthConfig    `json:"health"`
}

// OpenClawConfig is the completion-gateway connection.
type OpenClawConfig struct {
	URL        string `env:"TSCLAW_OPENCLAW_URL"         json:"url"`
	Token      string `env:"TSCLAW_OPENCLAW_TOKEN"       json:"token"`
	SessionKey string `env:"TSCLAW_OPENCLAW_SESSION_KEY" json:"session_key"`
	AgentID    string `env:"TSCLAW_OPENCLAW_AGENT_ID"    json:"agent_id"`
	TimeoutMs  int    `env:"TSCLAW_OPENCLAW_TIMEOUT_MS"  json:"timeout_ms"`
}

func (c *OpenClawConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// TeamSpeakConfig is the ServerQuery connection.
type TeamSpeakConfig struct {
	Host     string `env:"TSCLAW_TEAMSPEAK_HOST"      json:"host"`
	Port     int    `env:"TSCLAW_TEAMSPEAK_PORT"      json:"port"`
	Username string `env:"TSCLAW_TEAMSPEAK_USERNAME"  json:"username"`
	Password string `env:"TSCLAW_TEAMSPEAK_PASSWORD"  json:"password"`
	ServerID int    `env:"TSCLAW_TEAMSPEAK_SERVER_ID" json:"server_id"`
	Nickname string `env:"TSCLAW_TEAMSPEAK_NICKNAME"  json:"nickname"`
}

// BridgeConfig controls what gets relayed and how replies come back.
type BridgeConfig struct {
	TrackChannelChat     bool   `env:"TSCLAW_BRIDGE_TRACK_CHANNEL_CHAT"     json:"track_channel_chat"`
	TrackPrivateMessages bool   `env:"TSCLAW_BRIDGE_TRACK_PRIVATE_MESSAGES" json:"track_private_messages"`
	TrackServerMessages  bool   `env:"TSCLAW_BRIDGE_TRACK_SERVER_MESSAGES"  json:"track_server_messages"`
	TrackJoins           bool   `env:"TSCLAW_BRIDGE_TRACK_JOINS"            json:"track_joins"`
	TrackLeaves          bool   `env:"TSCLAW_BRIDGE_TRACK_LEAVES"           json:"track_leaves"`
	TrackMoves           bool   `env:"TSCLAW_BRIDGE_TRACK_MOVES"            json:"track_moves"`
	TriggerPrefix        string `env:"TSCLAW_BRIDGE_TRIGGER_PREFIX"         json:"trigger_prefix"`
	RateLimitEnabled     bool   `env:"TSCLAW_BRIDGE_RATE_LIMIT_ENABLED"     json:"rate_limit_enabled"`
	RateLimitMs          int    `env:"TSCLAW_BRIDGE_RATE_LIMIT_MS"          json:"rate_limit_ms"`
	InputValidation      bool   `env:"TSCLAW_BRIDGE_INPUT_VALIDATION"       json:"input_validation"`
	NotifyChannelID      string `env:"TSCLAW_BRIDGE_NOTIFY_CHANNEL_ID"      json:"notify_channel_id"`
	SilentMode           bool   `env:"TSCLAW_BRIDGE_SILENT_MODE"            json:"silent_mode"`
	ChunkDelayMs         int    `env:"TSCLAW_BRIDGE_CHUNK_DELAY_MS"         json:"chunk_delay_ms"`
	Debug                bool   `env:"TSCLAW_BRIDGE_DEBUG"                  json:"debug"`
}

func (b *BridgeConfig) RateLimit() time.Duration {
	return time.Duration(b.RateLimitMs) * time.Millisecond
}

func (b *BridgeConfig) ChunkDelay() time.Duration {
	return time.Duration(b.ChunkDelayMs) * time.Millisecond
}

type HealthConfig struct {
	Enabled bool   `env:"TSCLAW_HEALTH_ENABLED" json:"enabled"`
	Host    string `env:"TSCLAW_HEALTH_HOST"    json:"host"`
	Port    int    `env:"TSCLAW_HEALTH_PORT"    json:"port"`
}

func DefaultConfig() *Config {
	return &Config{
		OpenClaw: OpenClawConfig{
			URL:       "http://localhost:18789",
			AgentID:   "main",
			TimeoutMs: 60000,
		},
		TeamSpeak: TeamSpeakConfig{
			Host:     "localhost",
			Port:     10011,
			ServerID: 1,
			Nickname: "OpenClaw Bridge",
		},
		Bridge: BridgeConfig{
			TrackChannelChat:     true,
			TrackPrivateMessages: true,
			TrackServerMessages:  true,
			TrackJoins:           true,
			TrackLeaves:          true,
			TrackMoves:           true,
			RateLimitEnabled:     true,
			RateLimitMs:          5000,
			InputValidation:      true,
			ChunkDelayMs:         100,
		},
		Health: HealthConfig{
			Host: "127.0.0.1",
			Port: 18790,
		},
	}
}

// LoadConfig reads path on top of DefaultConfig and applies environment
// overrides. A missing file is not an error; the defaults plus environment
// still have to pass Validate before the bridge starts.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks the fields the bridge cannot run without.
func (c *Config) Validate() error {
	if c.OpenClaw.URL == "" {
		return errors.New("openclaw.url is required")
	}
	if c.OpenClaw.SessionKey == "" {
		return errors.New("openclaw.session_key is required (or set TSCLAW_OPENCLAW_SESSION_KEY)")
	}
	if c.OpenClaw.AgentID == "" {
		return errors.New("openclaw.agent_id is required")
	}
	if c.TeamSpeak.Host == "" {
		return errors.New("teamspeak.host is required")
	}
	if c.TeamSpeak.Username == "" {
		return errors.New("teamspeak.username is required (or set TSCLAW_TEAMSPEAK_USERNAME)")
	}
	if c.TeamSpeak.Password == "" {
		return errors.New("teamspeak.password is required (or set TSCLAW_TEAMSPEAK_PASSWORD)")
	}
	if c.Bridge.RateLimitEnabled && c.Bridge.RateLimitMs <= 0 {
		return errors.New("bridge.rate_limit_ms must be positive when rate limiting is enabled")
	}
	return nil
}
