package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/creastat/foodagent/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		// runs before any config exists
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE:              runInitConfig,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	RootCmd.AddCommand(cmd)
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force)", path)
	}
	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
