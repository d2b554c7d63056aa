package texmod

import (
	"fmt"
	"strings"
)

// ImportFormat is the format a host import pipeline decodes a source image
// into before post-processing.
type ImportFormat uint8

const (
	ImportAutomaticTruecolor ImportFormat = iota
	ImportAutomaticCompressed
	ImportAutomatic16Bit
	ImportRGB24
	ImportRGBA32
	ImportARGB32
	ImportRGB16
	ImportRGBA16
	ImportARGB16
)

var importNames = [...]string{
	ImportAutomaticTruecolor:  "AutomaticTruecolor",
	ImportAutomaticCompressed: "AutomaticCompressed",
	ImportAutomatic16Bit:      "Automatic16bit",
	ImportRGB24:               "RGB24",
	ImportRGBA32:              "RGBA32",
	ImportARGB32:              "ARGB32",
	ImportRGB16:               "RGB16",
	ImportRGBA16:              "RGBA16",
	ImportARGB16:              "ARGB16",
}

func (f ImportFormat) String() string {
	if int(f) < len(importNames) {
		return importNames[f]
	}
	return fmt.Sprintf("ImportFormat(%d)", uint8(f))
}

func ParseImportFormat(s string) (ImportFormat, error) {
	if s == "" {
		return ImportAutomaticTruecolor, nil
	}
	for i, n := range importNames {
		if strings.EqualFold(n, s) {
			return ImportFormat(i), nil
		}
	}
	return 0, fmt.Errorf("texmod: unknown import format %q", s)
}

// Lossy reports whether the import format loses precision before the
// pipeline sees the pixels.
func (f ImportFormat) Lossy() bool {
	switch f {
	case ImportAutomaticCompressed, ImportAutomatic16Bit, ImportRGB16, ImportRGBA16, ImportARGB16:
		return true
	}
	return false
}

// ImportSettings are the host import options that matter to the pipeline.
type ImportSettings struct {
	Format              ImportFormat
	AlphaIsTransparency bool
	Quality             CompressionQuality
}

// PrepareImport adjusts import settings for a texture that is about to be
// post-processed: the pipeline must see full precision pixels with
// untouched transparent colour, so lossy formats are promoted to their
// truecolor counterpart. A zero selection leaves the settings as they are.
func PrepareImport(s ImportSettings, sel Selection) ImportSettings {
	if sel.IsZero() {
		return s
	}
	s.AlphaIsTransparency = false
	s.Quality = QualityBest
	switch s.Format {
	case ImportAutomatic16Bit, ImportAutomaticCompressed:
		s.Format = ImportAutomaticTruecolor
	case ImportRGB16:
		s.Format = ImportRGB24
	case ImportRGBA16:
		s.Format = ImportRGBA32
	case ImportARGB16:
		s.Format = ImportARGB32
	}
	return s
}

// ImportTexture applies the import format to freshly decoded pixels: 16-bit
// formats keep 4 bits per channel (RGB16 drops alpha), compressed imports
// keep 5-6-5 colour. Truecolor formats round to 8 bits.
func ImportTexture(t *Texture, s ImportSettings) {
	var bits [4]uint8
	switch s.Format {
	case ImportAutomatic16Bit, ImportRGBA16, ImportARGB16:
		bits = FormatRGBA4444.ChannelBits()
	case ImportRGB16:
		bits = [4]uint8{4, 4, 4, 0}
	case ImportAutomaticCompressed:
		bits = FormatDXT5.ChannelBits()
	case ImportRGB24:
		bits = FormatRGB24.ChannelBits()
	default:
		bits = FormatRGBA32.ChannelBits()
	}
	QuantizeBuffer(t.pix, bits)
	t.Apply(true)
}

// QuantizeBuffer rounds each channel to the given storage precision. A
// channel with zero bits is forced to 1 (used for alpha in opaque formats).
func QuantizeBuffer(b *PixelBuffer, bits [4]uint8) {
	quantizeBuffer(b, bits, 0.5)
}

// TruncateBuffer is QuantizeBuffer with truncation instead of rounding.
func TruncateBuffer(b *PixelBuffer, bits [4]uint8) {
	quantizeBuffer(b, bits, 0)
}

func quantizeBuffer(b *PixelBuffer, bits [4]uint8, bias float32) {
	for i := range b.Pix {
		p := &b.Pix[i]
		p.R = quantizeBits(p.R, bits[0], bias)
		p.G = quantizeBits(p.G, bits[1], bias)
		p.B = quantizeBits(p.B, bits[2], bias)
		p.A = quantizeBits(p.A, bits[3], bias)
	}
}

func quantizeBits(v float32, bits uint8, bias float32) float32 {
	if bits == 0 {
		return 1
	}
	levels := float32(uint32(1)<<bits - 1)
	v = max(0, min(1, v))
	return float32(int32(v*levels+bias)) / levels
}
