package main

import (
	"fmt"

	"github.com/setanarut/texmod/assetdb"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process [path...]",
	Short: "Run the pipeline for labelled textures (all of them when no path is given)",
	RunE:  runProcess,
}

func init() {
	addEncoderFlags(processCmd)
	processCmd.Flags().String("platform", "", "Deployment platform: standalone, android, ios (overrides the manifest)")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	store, m, err := openProject(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("platform") {
		m.Platform, _ = cmd.Flags().GetString("platform")
	}
	opt, err := m.Options()
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, &opt); err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = m.Paths()
	}
	for _, p := range paths {
		if _, ok := m.Textures[p]; !ok {
			return fmt.Errorf("%s: not in %s", p, assetdb.ManifestName)
		}
	}
	return runJobs(cmd, store, m, opt, paths)
}
