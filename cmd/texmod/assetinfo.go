package main

import (
	"fmt"
	"os"

	"github.com/setanarut/texmod/assetdb"
	"github.com/spf13/cobra"
)

var assetInfoCmd = &cobra.Command{
	Use:   "asset-info [file]",
	Short: "Inspect the header and mip chain of an .asset file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssetInfo,
}

func init() {
	rootCmd.AddCommand(assetInfoCmd)
}

func runAssetInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	h, tex, err := assetdb.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:       %s\n", path)
	fmt.Fprintf(out, "GUID:       %s\n", h.GUID)
	fmt.Fprintf(out, "Format:     %s (alpha=%t block=%t)\n", h.Format, h.Format.HasAlpha(), h.Format.Block())
	fmt.Fprintf(out, "Dimensions: %d x %d\n", h.Width, h.Height)
	fmt.Fprintf(out, "Wrap/filter: %d/%d bias=%g aniso=%d\n", h.WrapMode, h.FilterMode, h.MipMapBias, h.AnisoLevel)
	fmt.Fprintf(out, "File size:  %d bytes\n", len(data))
	fmt.Fprintf(out, "Levels:     %d\n", tex.MipCount())
	for i := range tex.MipCount() {
		l := tex.Level(i)
		fmt.Fprintf(out, "  %2d: %d x %d\n", i, l.W, l.H)
	}
	return nil
}
