package main

import (
	"fmt"

	"github.com/setanarut/texmod"
	"github.com/spf13/cobra"
)

var reimportCmd = &cobra.Command{
	Use:   "reimport [platform]",
	Short: "Switch the deployment platform and reprocess every texture with a compressed output",
	Args:  cobra.ExactArgs(1),
	RunE:  runReimport,
}

func init() {
	addEncoderFlags(reimportCmd)
	rootCmd.AddCommand(reimportCmd)
}

func runReimport(cmd *cobra.Command, args []string) error {
	platform, err := texmod.ParsePlatform(args[0])
	if err != nil {
		return err
	}
	store, m, err := openProject(cmd)
	if err != nil {
		return err
	}
	m.Platform = platform.String()
	opt, err := m.Options()
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, &opt); err != nil {
		return err
	}

	paths := m.CompressedPaths()
	fmt.Fprintf(cmd.OutOrStdout(), "platform %s (%s), %d textures\n", platform, opt.Formats, len(paths))
	if len(paths) == 0 {
		return store.SaveManifest(m)
	}
	return runJobs(cmd, store, m, opt, paths)
}
