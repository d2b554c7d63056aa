package texmod

import (
	"fmt"
	"image"
	"slices"
)

type WrapMode uint8

const (
	WrapRepeat WrapMode = iota
	WrapClamp
	WrapMirror
)

type FilterMode uint8

const (
	FilterPoint FilterMode = iota
	FilterBilinear
	FilterTrilinear
)

// Metadata is the display state copied onto textures built from a source.
type Metadata struct {
	WrapMode   WrapMode
	FilterMode FilterMode
	MipMapBias float32
	AnisoLevel int
}

// Texture is the image handle the pipeline reads from and writes to.
// Pixels are only changed through SetPixels; Apply rebuilds the mip chain.
type Texture struct {
	Width, Height int
	Format        PixelFormat
	Mipmaps       bool
	Metadata

	pix  *PixelBuffer
	mips []*PixelBuffer // levels 1..n, valid after Apply(true)
}

func NewTexture(w, h int, format PixelFormat, mipmaps bool) *Texture {
	return &Texture{
		Width:    w,
		Height:   h,
		Format:   format,
		Mipmaps:  mipmaps,
		Metadata: Metadata{FilterMode: FilterBilinear, AnisoLevel: 1},
		pix:      NewPixelBuffer(w, h),
	}
}

// TextureFromImage creates an RGBA32 texture holding img's pixels.
func TextureFromImage(img image.Image, mipmaps bool) *Texture {
	buf := BufferFromImage(img)
	t := NewTexture(buf.W, buf.H, FormatRGBA32, mipmaps)
	t.pix = buf
	t.Apply(true)
	return t
}

// BuildTexture returns an empty texture of src's size carrying only src's
// metadata and mipmap setting. No pixel data is copied.
func BuildTexture(src *Texture, format PixelFormat) *Texture {
	t := NewTexture(src.Width, src.Height, format, src.Mipmaps)
	t.Metadata = src.Metadata
	return t
}

// GetPixels returns a copy of the level 0 pixels.
func (t *Texture) GetPixels() []Color {
	if t.pix == nil {
		return nil
	}
	return slices.Clone(t.pix.Pix)
}

// SetPixels replaces the level 0 pixels. The mip chain is stale until Apply.
func (t *Texture) SetPixels(pix []Color) error {
	if len(pix) != t.Width*t.Height {
		return fmt.Errorf("%w: %d pixels for %dx%d texture", ErrGeometry, len(pix), t.Width, t.Height)
	}
	t.pix = &PixelBuffer{W: t.Width, H: t.Height, Pix: slices.Clone(pix)}
	return nil
}

// Validate checks the handle's pixel storage against its dimensions.
func (t *Texture) Validate() error {
	if t == nil || t.pix == nil {
		return fmt.Errorf("%w: texture has no pixels", ErrGeometry)
	}
	if t.pix.W != t.Width || t.pix.H != t.Height {
		return fmt.Errorf("%w: texture %dx%d holds a %dx%d buffer", ErrGeometry, t.Width, t.Height, t.pix.W, t.pix.H)
	}
	return t.pix.Validate()
}

// Apply commits pending pixel changes. With updateMipmaps set and mipmaps
// enabled the chain is regenerated from level 0.
func (t *Texture) Apply(updateMipmaps bool) {
	if !t.Mipmaps {
		t.mips = nil
		return
	}
	if !updateMipmaps && t.mips != nil {
		return
	}
	t.mips = generateMipmaps(t.pix)
}

// MipCount returns the number of levels including level 0.
func (t *Texture) MipCount() int {
	return 1 + len(t.mips)
}

// Level returns mip level n, or nil when out of range. Level 0 aliases the
// texture's pixels.
func (t *Texture) Level(n int) *PixelBuffer {
	if n == 0 {
		return t.pix
	}
	if n < 0 || n > len(t.mips) {
		return nil
	}
	return t.mips[n-1]
}

// SetLevels installs a full chain, level 0 first. Used when loading stored
// textures whose mips were persisted.
func (t *Texture) SetLevels(levels []*PixelBuffer) error {
	if len(levels) == 0 {
		return fmt.Errorf("%w: no levels", ErrGeometry)
	}
	if levels[0].W != t.Width || levels[0].H != t.Height {
		return fmt.Errorf("%w: level 0 is %dx%d, texture is %dx%d", ErrGeometry, levels[0].W, levels[0].H, t.Width, t.Height)
	}
	for _, l := range levels {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	t.pix = levels[0]
	t.mips = levels[1:]
	if len(t.mips) == 0 {
		t.mips = nil
	}
	return nil
}

// Image renders level 0 as an 8-bit image.
func (t *Texture) Image() *image.NRGBA {
	return t.pix.ToNRGBA()
}

// ============ MIPMAPS ============

// generateMipmaps halves the buffer with a 2x2 box filter until both sides
// reach one pixel. Odd edges reuse the last row/column.
func generateMipmaps(src *PixelBuffer) []*PixelBuffer {
	if src == nil || src.W == 0 || src.H == 0 || src.W == 1 && src.H == 1 {
		return nil
	}
	var levels []*PixelBuffer
	cur := src
	for cur.W > 1 || cur.H > 1 {
		next := NewPixelBuffer(max(1, cur.W/2), max(1, cur.H/2))
		for y := range next.H {
			for x := range next.W {
				sx, sy := x*2, y*2
				sx1, sy1 := min(sx+1, cur.W-1), min(sy+1, cur.H-1)
				c0 := cur.At(sx, sy)
				c1 := cur.At(sx1, sy)
				c2 := cur.At(sx, sy1)
				c3 := cur.At(sx1, sy1)
				next.Set(x, y, Color{
					R: (c0.R + c1.R + c2.R + c3.R) / 4,
					G: (c0.G + c1.G + c2.G + c3.G) / 4,
					B: (c0.B + c1.B + c2.B + c3.B) / 4,
					A: (c0.A + c1.A + c2.A + c3.A) / 4,
				})
			}
		}
		levels = append(levels, next)
		cur = next
	}
	return levels
}
