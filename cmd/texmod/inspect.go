package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/texmod"
	"github.com/setanarut/texmod/assetdb"
	"github.com/setanarut/texmod/utils"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Print channel statistics of an image or .asset file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().String("compare", "", "Second image or .asset to compare against")
	inspectCmd.Flags().Int("palette", 0, "Extract a palette of this many colours")
	inspectCmd.Flags().String("palette-method", utils.PaletteMethodKMeans.String(), "Palette method: kmeans, dominantcolor")
	inspectCmd.Flags().String("palette-out", "", "Write the palette as a PNG swatch strip")
	rootCmd.AddCommand(inspectCmd)
}

// loadBuffer reads level 0 of an image file or .asset file.
func loadBuffer(name string) (*texmod.PixelBuffer, error) {
	if strings.EqualFold(filepath.Ext(name), ".asset") {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		_, tex, err := assetdb.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return tex.Level(0), nil
	}
	img, err := utils.LoadImage(name)
	if err != nil {
		return nil, err
	}
	return texmod.BufferFromImage(img), nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	buf, err := loadBuffer(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "File: %s\n%s", args[0], utils.Stats(buf))

	if other, _ := cmd.Flags().GetString("compare"); other != "" {
		b, err := loadBuffer(other)
		if err != nil {
			return err
		}
		d, err := utils.Compare(buf, b)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Compare %s: %s\n", other, d)
	}

	k, _ := cmd.Flags().GetInt("palette")
	if k <= 0 {
		return nil
	}
	method, _ := cmd.Flags().GetString("palette-method")
	palette := utils.ExtractPalette(buf, k, utils.ParsePaletteMethod(method))
	utils.SortPaletteByBrightness(palette)
	hex := make([]string, len(palette))
	for i, c := range palette {
		hex[i] = c.Clamped().Hex()
	}
	fmt.Fprintf(out, "Palette: %s\n", strings.Join(hex, " "))
	if dst, _ := cmd.Flags().GetString("palette-out"); dst != "" {
		return utils.SavePalette(palette, 64, dst)
	}
	return nil
}
