package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Discard a stored session (redis session store)",
		Run:   runCancel,
	}
	cmd.Flags().StringP("session", "s", "", "Session id (required)")
	cmd.MarkFlagRequired("session")
	RootCmd.AddCommand(cmd)
}

func runCancel(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("session")

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	if err := a.engine.Cancel(cmd.Context(), id); err != nil {
		exitErr("cancel", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"session":%q}`+"\n", id)
}
