package texmod

import (
	"fmt"
	"image"
	"image/color"
	"slices"
)

// Color is a straight (non-premultiplied) RGBA value with channels in [0,1].
// Error diffusion may push channels slightly out of range until they are
// quantized.
type Color struct {
	R, G, B, A float32
}

// Gray returns an opaque gray of intensity v.
func Gray(v float32) Color {
	return Color{v, v, v, 1}
}

// NRGBA converts c to 8 bits per channel, rounding and clamping.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}
}

func to8(v float32) uint8 {
	return uint8(max(0, min(255, v*255+0.5)))
}

// PixelBuffer owns a W×H plane of Color values in row-major order.
type PixelBuffer struct {
	W, H int
	Pix  []Color // len = W*H
}

// NewPixelBuffer allocates a zeroed (transparent black) buffer.
func NewPixelBuffer(w, h int) *PixelBuffer {
	return &PixelBuffer{W: w, H: h, Pix: make([]Color, w*h)}
}

// Validate reports ErrGeometry when the pixel slice does not match the
// declared dimensions.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrGeometry)
	}
	if b.W < 0 || b.H < 0 || len(b.Pix) != b.W*b.H {
		return fmt.Errorf("%w: %dx%d buffer holds %d pixels", ErrGeometry, b.W, b.H, len(b.Pix))
	}
	return nil
}

func (b *PixelBuffer) Clone() *PixelBuffer {
	return &PixelBuffer{W: b.W, H: b.H, Pix: slices.Clone(b.Pix)}
}

func (b *PixelBuffer) At(x, y int) Color {
	return b.Pix[pixOffset(b.W, x, y)]
}

func (b *PixelBuffer) Set(x, y int, c Color) {
	b.Pix[pixOffset(b.W, x, y)] = c
}

// ToNRGBA renders the buffer as an 8-bit straight-alpha image.
func (b *PixelBuffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.W, b.H))
	for y := range b.H {
		for x := range b.W {
			img.SetNRGBA(x, y, b.Pix[pixOffset(b.W, x, y)].NRGBA())
		}
	}
	return img
}

// BufferFromImage reads any image.Image into a float buffer, undoing the
// premultiplication that image.Color.RGBA applies.
func BufferFromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := NewPixelBuffer(w, h)
	// Straight-alpha sources are read directly so colour under zero alpha
	// survives.
	if src, ok := img.(*image.NRGBA); ok {
		for y := range h {
			row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := range w {
				s := row[x*4 : x*4+4 : x*4+4]
				buf.Pix[pixOffset(w, x, y)] = Color{
					R: float32(s[0]) / 255,
					G: float32(s[1]) / 255,
					B: float32(s[2]) / 255,
					A: float32(s[3]) / 255,
				}
			}
		}
		return buf
	}
	for y := range h {
		for x := range w {
			c := color.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			buf.Pix[pixOffset(w, x, y)] = Color{
				R: float32(c.R) / 65535,
				G: float32(c.G) / 65535,
				B: float32(c.B) / 65535,
				A: float32(c.A) / 65535,
			}
		}
	}
	return buf
}

func pixOffset(w, x, y int) int {
	return y*w + x
}
