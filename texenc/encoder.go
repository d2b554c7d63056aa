// Package texenc is the local image encoding service used by the texmod
// processor: format conversion for textures, PNG and JPG files and
// palette PNGs.
//
// Compress reproduces the storage precision of each pixel format. Block
// formats are reduced to their endpoint precision and alpha capability;
// producing the actual blocks is left to the platform packer.
package texenc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/setanarut/texmod"
	"github.com/setanarut/texmod/utils"
)

type Options struct {
	// JPEG quality 1-100.
	JPGQuality int
	// Palette extraction for EncodePalettedPNG.
	PaletteMethod utils.PaletteMethod
	// Dither palette PNGs with Floyd–Steinberg. Off maps every texel to the
	// nearest palette colour.
	Dither bool
}

func DefaultOptions() Options {
	return Options{
		JPGQuality:    75,
		PaletteMethod: utils.PaletteMethodKMeans,
		Dither:        true,
	}
}

// Encoder implements texmod.Encoder and texmod.PalettedEncoder.
type Encoder struct {
	opt Options
}

func New(opt Options) *Encoder {
	if opt.JPGQuality <= 0 || opt.JPGQuality > 100 {
		opt.JPGQuality = DefaultOptions().JPGQuality
	}
	return &Encoder{opt: opt}
}

// Compress converts every level of tex to format. QualityFast truncates,
// the other qualities round to the nearest representable value.
func (e *Encoder) Compress(tex *texmod.Texture, format texmod.PixelFormat, quality texmod.CompressionQuality) error {
	if !format.Valid() {
		return fmt.Errorf("%w: %s", texmod.ErrUnsupportedFormat, format)
	}
	bits := format.ChannelBits()
	for i := range tex.MipCount() {
		if quality == texmod.QualityFast {
			texmod.TruncateBuffer(tex.Level(i), bits)
		} else {
			texmod.QuantizeBuffer(tex.Level(i), bits)
		}
	}
	tex.Format = format
	texmod.Logger().Debug("texture compressed", "format", format, "quality", quality, "levels", tex.MipCount())
	return nil
}

func (e *Encoder) EncodePNG(tex *texmod.Texture) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, tex.Image()); err != nil {
		return nil, fmt.Errorf("texenc: png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPG writes the colour channels as stored; alpha is ignored rather
// than composited.
func (e *Encoder) EncodeJPG(tex *texmod.Texture) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, utils.OpaqueImage(tex.Level(0)), &jpeg.Options{Quality: e.opt.JPGQuality}); err != nil {
		return nil, fmt.Errorf("texenc: jpg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePalettedPNG writes an 8-bit palette PNG with at most colors
// entries. Entry 0 is fully transparent and used for texels with alpha
// below one half; the rest come from the texture's palette.
func (e *Encoder) EncodePalettedPNG(tex *texmod.Texture, colors int) ([]byte, error) {
	if colors < 3 || colors > 256 {
		return nil, fmt.Errorf("texenc: palette size %d outside [3,256]", colors)
	}
	src := tex.Level(0)
	pal := utils.ExtractPalette(src, colors-1, e.opt.PaletteMethod)
	opaque := paletteColors(pal)

	indices, err := e.mapColors(src, opaque)
	if err != nil {
		return nil, err
	}

	full := append(color.Palette{color.NRGBA{}}, opaque...)
	img := image.NewPaletted(image.Rect(0, 0, src.W, src.H), full)
	for y := range src.H {
		for x := range src.W {
			i := y*src.W + x
			if src.Pix[i].A < 0.5 {
				img.SetColorIndex(x, y, 0)
				continue
			}
			img.SetColorIndex(x, y, uint8(indices[i]+1))
		}
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("texenc: paletted png: %w", err)
	}
	return buf.Bytes(), nil
}

// paletteColors converts to opaque colours, padding to the two entries the
// ditherer needs.
func paletteColors(pal []colorful.Color) color.Palette {
	out := make(color.Palette, 0, max(2, len(pal)))
	seen := make(map[color.RGBA]bool)
	for _, c := range pal {
		r, g, b := c.Clamped().RGB255()
		rgba := color.RGBA{R: r, G: g, B: b, A: 255}
		if !seen[rgba] {
			seen[rgba] = true
			out = append(out, rgba)
		}
	}
	for _, c := range []color.RGBA{{A: 255}, {R: 255, G: 255, B: 255, A: 255}} {
		if len(out) >= 2 {
			break
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// mapColors returns, per texel, the index into pal of its output colour.
func (e *Encoder) mapColors(src *texmod.PixelBuffer, pal color.Palette) ([]int, error) {
	out := make([]int, src.W*src.H)
	if !e.opt.Dither {
		cpal := make([]colorful.Color, len(pal))
		for i, c := range pal {
			cpal[i], _ = colorful.MakeColor(c)
		}
		for i, p := range src.Pix {
			c := colorful.Color{R: float64(p.R), G: float64(p.G), B: float64(p.B)}.Clamped()
			out[i] = utils.NearestColor(cpal, c)
		}
		return out, nil
	}

	d := dither.NewDitherer(pal)
	if d == nil {
		return nil, errors.New("texenc: ditherer rejected palette")
	}
	d.Matrix = dither.FloydSteinberg
	mapped := d.Dither(utils.OpaqueImage(src))
	if mapped == nil {
		return nil, errors.New("texenc: dithering failed")
	}
	b := mapped.Bounds()
	for y := range src.H {
		for x := range src.W {
			out[y*src.W+x] = pal.Index(mapped.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out, nil
}
