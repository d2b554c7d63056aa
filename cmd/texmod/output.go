package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var outputCmd = &cobra.Command{
	Use:       "output [on|off]",
	Short:     "Show or switch the project's output stage",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE:      runOutput,
}

func init() {
	rootCmd.AddCommand(outputCmd)
}

func runOutput(cmd *cobra.Command, args []string) error {
	store, m, err := openProject(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		m.OutputEnabled = args[0] == "on"
		if err := store.SaveManifest(m); err != nil {
			return err
		}
	}
	state := "off"
	if m.OutputEnabled {
		state = "on"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "output stage: %s\n", state)
	return nil
}
