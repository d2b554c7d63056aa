package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/setanarut/texmod"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "texmod",
	Short:         "Post-process textures of a project: alpha bleed, dithering and output conversion",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		texmod.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("project", "C", ".", "Project root holding texmod.json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every processing step")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
