package main

import (
	"fmt"
	"path/filepath"

	"github.com/setanarut/texmod"
	"github.com/setanarut/texmod/assetdb"
	"github.com/setanarut/texmod/texenc"
	"github.com/setanarut/texmod/utils"
	"github.com/spf13/cobra"
)

func openProject(cmd *cobra.Command) (*assetdb.Store, *assetdb.Manifest, error) {
	root, _ := cmd.Flags().GetString("project")
	store, err := assetdb.Open(root)
	if err != nil {
		return nil, nil, err
	}
	m, err := store.LoadManifest()
	if err != nil {
		return nil, nil, err
	}
	return store, m, nil
}

// addEncoderFlags registers the flags read by newEncoder and applyOverrides.
func addEncoderFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("output-enabled", true, "Run the output stage (overrides the manifest)")
	cmd.Flags().String("quality", "", "Compression quality: fast, normal, best (overrides the manifest)")
	cmd.Flags().String("diffusion", "", "Floyd-Steinberg weights: standard, legacy (overrides the manifest)")
	cmd.Flags().Int("jpg-quality", texenc.DefaultOptions().JPGQuality, "JPEG quality (1-100)")
	cmd.Flags().String("palette-method", utils.PaletteMethodKMeans.String(), "Palette for TPNG8 outputs: kmeans, dominantcolor")
	cmd.Flags().Bool("no-dither", false, "Map TPNG8 outputs to the nearest palette colour without dithering")
	cmd.Flags().Bool("mipmaps", true, "Generate mipmaps for imported textures")
}

func newEncoder(cmd *cobra.Command) *texenc.Encoder {
	jpgQuality, _ := cmd.Flags().GetInt("jpg-quality")
	method, _ := cmd.Flags().GetString("palette-method")
	noDither, _ := cmd.Flags().GetBool("no-dither")
	return texenc.New(texenc.Options{
		JPGQuality:    jpgQuality,
		PaletteMethod: utils.ParsePaletteMethod(method),
		Dither:        !noDither,
	})
}

// applyOverrides layers explicitly set flags over the manifest options.
func applyOverrides(cmd *cobra.Command, opt *texmod.Options) error {
	f := cmd.Flags()
	if f.Changed("output-enabled") {
		opt.OutputEnabled, _ = f.GetBool("output-enabled")
	}
	if f.Changed("quality") {
		s, _ := f.GetString("quality")
		q, err := texmod.ParseCompressionQuality(s)
		if err != nil {
			return err
		}
		opt.Quality = q
	}
	if f.Changed("diffusion") {
		s, _ := f.GetString("diffusion")
		k, err := texmod.ParseDiffusionKernel(s)
		if err != nil {
			return err
		}
		opt.Diffusion = k
	}
	return nil
}

// importTexture decodes the source image p the way the import pipeline
// would for sel, and records the adjusted import settings in m.
func importTexture(store *assetdb.Store, m *assetdb.Manifest, p string, sel texmod.Selection, mipmaps bool) (*texmod.Texture, error) {
	settings, err := m.ImportSettings(p)
	if err != nil {
		return nil, err
	}
	settings = texmod.PrepareImport(settings, sel)
	if !sel.IsZero() {
		m.SetImportSettings(p, settings)
	}

	img, err := utils.LoadImage(filepath.Join(store.Root(), filepath.FromSlash(p)))
	if err != nil {
		return nil, err
	}
	tex := texmod.TextureFromImage(img, mipmaps)
	texmod.ImportTexture(tex, settings)
	return tex, nil
}

// runJobs processes paths as one batch and stores the in-place results.
func runJobs(cmd *cobra.Command, store *assetdb.Store, m *assetdb.Manifest, opt texmod.Options, paths []string) error {
	mipmaps, _ := cmd.Flags().GetBool("mipmaps")
	if !opt.OutputEnabled {
		texmod.Logger().Warn("output stage is off, textures stay unchanged; run 'texmod output on' or pass --output-enabled")
	}

	var jobs []texmod.Job
	for _, p := range paths {
		sel := m.Selection(p)
		if sel.IsZero() {
			texmod.Logger().Info("no labels, skipping", "path", p)
			continue
		}
		tex, err := importTexture(store, m, p, sel, mipmaps)
		if err != nil {
			return fmt.Errorf("import %s: %w", p, err)
		}
		jobs = append(jobs, texmod.Job{Path: p, Texture: tex, Selection: sel})
	}

	proc := texmod.NewProcessor(newEncoder(cmd), store, opt)
	if err := proc.ProcessBatch(jobs); err != nil {
		return err
	}
	for _, j := range jobs {
		if err := store.SaveImported(j.Path, j.Texture); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", j.Path, j.Selection)
	}
	return store.SaveManifest(m)
}
