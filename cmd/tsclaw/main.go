// tsclaw - TeamSpeak to OpenClaw event bridge
//
// Relays TeamSpeak activity (chat, joins, leaves, channel moves) to an
// OpenClaw agent and delivers the agent's replies back into TeamSpeak.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/tsclaw/cmd/tsclaw/internal"
	"github.com/tinyland-inc/tsclaw/cmd/tsclaw/internal/bridge"
	"github.com/tinyland-inc/tsclaw/cmd/tsclaw/internal/setup"
	"github.com/tinyland-inc/tsclaw/cmd/tsclaw/internal/version"
)

func NewTsclawCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tsclaw",
		Short:   "tsclaw - TeamSpeak to OpenClaw event bridge v" + internal.GetVersion(),
		Example: "tsclaw bridge",
	}

	cmd.AddCommand(
		setup.NewInitCommand(),
		bridge.NewBridgeCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewTsclawCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
