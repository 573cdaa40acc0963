package setup

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/tsclaw/cmd/tsclaw/internal"
	"github.com/tinyland-inc/tsclaw/pkg/config"
)

func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Write a default configuration file",
		Args:    cobra.NoArgs,
		Example: "tsclaw init",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := internal.GetConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			fmt.Println("Fill in openclaw.session_key and the teamspeak credentials, then run: tsclaw bridge")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}
