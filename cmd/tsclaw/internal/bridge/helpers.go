package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tinyland-inc/tsclaw/cmd/tsclaw/internal"
	"github.com/tinyland-inc/tsclaw/pkg/bus"
	"github.com/tinyland-inc/tsclaw/pkg/config"
	"github.com/tinyland-inc/tsclaw/pkg/delivery"
	"github.com/tinyland-inc/tsclaw/pkg/health"
	"github.com/tinyland-inc/tsclaw/pkg/logger"
	"github.com/tinyland-inc/tsclaw/pkg/openclaw"
	"github.com/tinyland-inc/tsclaw/pkg/platform/serverquery"
	"github.com/tinyland-inc/tsclaw/pkg/ratelimit"
	"github.com/tinyland-inc/tsclaw/pkg/relay"
)

func bridgeCmd(configPath string, debug bool) error {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if debug || cfg.Bridge.Debug {
		logger.SetLevel(logger.DEBUG)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	eb := bus.NewEventBus()
	agent := openclaw.NewClient(openclaw.Config{
		URL:        cfg.OpenClaw.URL,
		Token:      cfg.OpenClaw.Token,
		SessionKey: cfg.OpenClaw.SessionKey,
		AgentID:    cfg.OpenClaw.AgentID,
		Timeout:    cfg.OpenClaw.Timeout(),
	})
	limiter := ratelimit.New(cfg.Bridge.RateLimit(), cfg.Bridge.RateLimitEnabled)
	connector := serverquery.New(cfg.TeamSpeak, eb)
	deliverer := delivery.New(connector, eb, cfg.Bridge.NotifyChannelID,
		delivery.WithChunkDelay(cfg.Bridge.ChunkDelay()))
	rel := relay.New(cfg, eb, agent, limiter, deliverer)

	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthServer = health.NewServer(cfg.Health.Host, cfg.Health.Port)
		connector.OnStateChange(healthServer.SetReady)
		go func() {
			if err := healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorCF("health", "Health server error", map[string]any{"error": err.Error()})
			}
		}()
		fmt.Printf("Health endpoints on http://%s:%d/health and /ready\n", cfg.Health.Host, cfg.Health.Port)
	}

	if err := connector.Connect(); err != nil {
		return fmt.Errorf("teamspeak: %w", err)
	}
	rel.SetSelfUID(connector.SelfUID())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go rel.Run(ctx)
	go func() {
		if err := connector.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorCF("bridge", "Connector stopped", map[string]any{"error": err.Error()})
		}
	}()

	logStartup(cfg)
	fmt.Println("Bridge running. Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		fmt.Println("\nShutting down...")
	case <-connector.Done():
		logger.ErrorC("bridge", "Connection to TeamSpeak lost")
	}

	cancel()
	connector.Close()
	eb.Close()
	rel.Wait()
	if healthServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = healthServer.Stop(shutdownCtx)
	}
	fmt.Println("Bridge stopped")
	return nil
}

func logStartup(cfg *config.Config) {
	onOff := func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	}

	session := cfg.OpenClaw.SessionKey
	if len(session) > 20 {
		session = session[:20] + "..."
	}

	logger.InfoCF("bridge", "OpenClaw event bridge initialized", map[string]any{
		"gateway": cfg.OpenClaw.URL,
		"agent":   cfg.OpenClaw.AgentID,
		"session": session,
	})
	logger.InfoCF("bridge", "Events tracked", map[string]any{
		"channel_chat":     onOff(cfg.Bridge.TrackChannelChat),
		"private_messages": onOff(cfg.Bridge.TrackPrivateMessages),
		"server_messages":  onOff(cfg.Bridge.TrackServerMessages),
		"joins":            onOff(cfg.Bridge.TrackJoins),
		"leaves":           onOff(cfg.Bridge.TrackLeaves),
		"moves":            onOff(cfg.Bridge.TrackMoves),
	})
	logger.InfoCF("bridge", "Modes", map[string]any{
		"silent":  onOff(cfg.Bridge.SilentMode),
		"debug":   onOff(logger.GetLevel() == logger.DEBUG),
		"trigger": cfg.Bridge.TriggerPrefix,
	})
}
