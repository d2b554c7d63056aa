package assetdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"

	"github.com/setanarut/texmod"
	"github.com/setanarut/texmod/labels"
)

// ManifestName is the project file at the store root.
const ManifestName = "texmod.json"

// TextureEntry is the per-texture state of a project.
type TextureEntry struct {
	Labels              []string `json:"labels,omitempty"`
	ImportFormat        string   `json:"import_format,omitempty"`
	AlphaIsTransparency bool     `json:"alpha_is_transparency,omitempty"`
}

// Manifest is the project configuration. Texture keys are slash separated
// paths relative to the project root.
type Manifest struct {
	OutputEnabled bool                     `json:"output_enabled"`
	Platform      string                   `json:"platform,omitempty"`
	Quality       string                   `json:"quality,omitempty"`
	Diffusion     string                   `json:"diffusion,omitempty"`
	PaletteColors int                      `json:"palette_colors,omitempty"`
	Textures      map[string]*TextureEntry `json:"textures"`
}

// NewManifest returns the settings of a fresh project. Its output stage is
// off until the project turns it on.
func NewManifest() *Manifest {
	opt := texmod.DefaultOptions()
	return &Manifest{
		OutputEnabled: false,
		Platform:      texmod.PlatformStandalone.String(),
		Quality:       opt.Quality.String(),
		Diffusion:     opt.Diffusion.String(),
		PaletteColors: opt.PaletteColors,
		Textures:      make(map[string]*TextureEntry),
	}
}

// LoadManifest reads the project manifest. A missing file yields
// NewManifest.
func (s *Store) LoadManifest() (*Manifest, error) {
	data, err := s.ReadFile(ManifestName)
	if errors.Is(err, fs.ErrNotExist) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("assetdb: manifest: %w", err)
	}
	m := NewManifest()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("assetdb: manifest: %w", err)
	}
	if m.Textures == nil {
		m.Textures = make(map[string]*TextureEntry)
	}
	return m, nil
}

// SaveManifest writes the manifest immediately, outside any session.
func (s *Store) SaveManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("assetdb: manifest: %w", err)
	}
	data = append(data, '\n')
	if err := writeAtomic(filepath.Join(s.root, ManifestName), data); err != nil {
		return fmt.Errorf("assetdb: manifest: %w", err)
	}
	return nil
}

// Paths returns the texture keys in sorted order.
func (m *Manifest) Paths() []string {
	return slices.Sorted(maps.Keys(m.Textures))
}

// Entry returns the entry for p, creating it when missing.
func (m *Manifest) Entry(p string) *TextureEntry {
	e, ok := m.Textures[p]
	if !ok {
		e = &TextureEntry{}
		m.Textures[p] = e
	}
	return e
}

// Selection resolves the labels of p. Unknown textures select nothing.
func (m *Manifest) Selection(p string) texmod.Selection {
	e, ok := m.Textures[p]
	if !ok {
		return texmod.Selection{}
	}
	return labels.Resolve(e.Labels)
}

// Options builds processor options from the manifest.
func (m *Manifest) Options() (texmod.Options, error) {
	opt := texmod.DefaultOptions()
	opt.OutputEnabled = m.OutputEnabled
	platform, err := texmod.ParsePlatform(m.Platform)
	if err != nil {
		return opt, err
	}
	opt.Formats = texmod.FormatSpecFor(platform)
	if opt.Quality, err = texmod.ParseCompressionQuality(m.Quality); err != nil {
		return opt, err
	}
	if opt.Diffusion, err = texmod.ParseDiffusionKernel(m.Diffusion); err != nil {
		return opt, err
	}
	if m.PaletteColors > 0 {
		opt.PaletteColors = m.PaletteColors
	}
	return opt, nil
}

// ImportSettings returns the import settings recorded for p.
func (m *Manifest) ImportSettings(p string) (texmod.ImportSettings, error) {
	s := texmod.ImportSettings{Quality: texmod.QualityNormal}
	e, ok := m.Textures[p]
	if !ok {
		return s, nil
	}
	f, err := texmod.ParseImportFormat(e.ImportFormat)
	if err != nil {
		return s, fmt.Errorf("%s: %w", p, err)
	}
	s.Format = f
	s.AlphaIsTransparency = e.AlphaIsTransparency
	return s, nil
}

// SetImportSettings records s for p.
func (m *Manifest) SetImportSettings(p string, s texmod.ImportSettings) {
	e := m.Entry(p)
	e.ImportFormat = s.Format.String()
	e.AlphaIsTransparency = s.AlphaIsTransparency
}

// CompressedPaths returns the textures whose output depends on the
// platform's compressed formats.
func (m *Manifest) CompressedPaths() []string {
	var out []string
	for _, p := range m.Paths() {
		if labels.Compressed(m.Textures[p].Labels) {
			out = append(out, p)
		}
	}
	return out
}
