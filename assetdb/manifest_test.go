package assetdb

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/setanarut/texmod"
)

func TestManifestDefaults(t *testing.T) {
	s := openTemp(t)
	m, err := s.LoadManifest()
	if err != nil {
		t.Fatal(err)
	}
	if m.OutputEnabled || len(m.Textures) != 0 {
		t.Fatalf("default manifest %+v", m)
	}
	opt, err := m.Options()
	if err != nil {
		t.Fatal(err)
	}
	want := texmod.DefaultOptions()
	want.OutputEnabled = false
	if opt != want {
		t.Errorf("Options() = %+v, want %+v", opt, want)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	s := openTemp(t)
	m := NewManifest()
	m.Platform = "ios"
	m.Diffusion = "legacy"
	m.Entry("ui/a.png").Labels = []string{"AlphaBleed", "TCompressed"}
	m.Entry("ui/b.png").Labels = []string{"TPNG"}
	m.SetImportSettings("ui/b.png", texmod.ImportSettings{Format: texmod.ImportRGBA16})
	if err := s.SaveManifest(m); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(s.Root(), ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"output_enabled": false`) {
		t.Errorf("manifest JSON:\n%s", raw)
	}

	got, err := s.LoadManifest()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.Paths(), []string{"ui/a.png", "ui/b.png"}) {
		t.Fatalf("Paths = %q", got.Paths())
	}
	if sel := got.Selection("ui/a.png"); sel != (texmod.Selection{Effect: texmod.EffectAlphaBleed, Output: texmod.OutputStoreCompressed}) {
		t.Errorf("Selection = %s", sel)
	}
	if sel := got.Selection("missing.png"); !sel.IsZero() {
		t.Errorf("unknown texture selected %s", sel)
	}
	opt, err := got.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opt.OutputEnabled || opt.Formats != texmod.FormatSpecFor(texmod.PlatformIOS) || opt.Diffusion != texmod.DiffusionLegacy {
		t.Errorf("Options() = %+v", opt)
	}
	is, err := got.ImportSettings("ui/b.png")
	if err != nil || is.Format != texmod.ImportRGBA16 {
		t.Errorf("ImportSettings = %+v, %v", is, err)
	}
	if !slices.Equal(got.CompressedPaths(), []string{"ui/a.png"}) {
		t.Errorf("CompressedPaths = %q", got.CompressedPaths())
	}
}

func TestManifestBadValues(t *testing.T) {
	m := NewManifest()
	m.Platform = "dreamcast"
	if _, err := m.Options(); err == nil {
		t.Error("unknown platform accepted")
	}
	m = NewManifest()
	m.Entry("a.png").ImportFormat = "BC7"
	if _, err := m.ImportSettings("a.png"); err == nil {
		t.Error("unknown import format accepted")
	}
}

func TestManifestInvalidJSON(t *testing.T) {
	s := openTemp(t)
	if err := os.WriteFile(filepath.Join(s.Root(), ManifestName), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadManifest(); err == nil {
		t.Fatal("LoadManifest accepted invalid JSON")
	}
}
