package texmod

import (
	"fmt"
	"math"
)

const (
	k1Per255 = float32(1.0 / 255.0)
	k1Per15  = float32(1.0 / 15.0)
)

// DiffusionKernel selects the Floyd–Steinberg weights.
type DiffusionKernel uint8

const (
	// DiffusionStandard uses 7/16, 3/16, 5/16, 1/16. The weights sum to one,
	// so only image borders lose error.
	DiffusionStandard DiffusionKernel = iota
	// DiffusionLegacy uses 7/15, 3/15, 5/15, 1/15 to reproduce textures
	// produced by the old importer byte for byte.
	DiffusionLegacy
)

func (k DiffusionKernel) String() string {
	if k == DiffusionLegacy {
		return "legacy"
	}
	return "standard"
}

func ParseDiffusionKernel(s string) (DiffusionKernel, error) {
	switch s {
	case "", "standard":
		return DiffusionStandard, nil
	case "legacy":
		return DiffusionLegacy, nil
	}
	return 0, fmt.Errorf("texmod: unknown diffusion kernel %q", s)
}

// weights returns right, below-left, below, below-right.
func (k DiffusionKernel) weights() [4]float32 {
	if k == DiffusionLegacy {
		return [4]float32{7.0 / 15.0, 3.0 / 15.0, 5.0 / 15.0, 1.0 / 15.0}
	}
	return [4]float32{7.0 / 16.0, 3.0 / 16.0, 5.0 / 16.0, 1.0 / 16.0}
}

// quantize4 snaps v to the nearest of the 16 levels k/15. Ties round to
// even, matching the legacy importer. Diffused error can push v slightly
// outside [0,1]; the level is clamped.
func quantize4(v float32) float32 {
	k := max(0, min(15, math.RoundToEven(float64(v*15))))
	return float32(k) * k1Per15
}

// residual8 rounds the quantization error to 8-bit granularity.
func residual8(v, q float32) float32 {
	return float32(math.RoundToEven(float64((v-q)*255))) * k1Per255
}

// Reduced16Bits quantizes every channel to 4 bits without diffusion.
func Reduced16Bits(b *PixelBuffer) {
	for i := range b.Pix {
		p := &b.Pix[i]
		p.R = quantize4(p.R)
		p.G = quantize4(p.G)
		p.B = quantize4(p.B)
		p.A = quantize4(p.A)
	}
}

// FloydSteinberg quantizes every channel to 4 bits and diffuses the rounded
// residual to unvisited neighbours in row-major order. Channels are
// independent; targets outside the image are dropped.
func FloydSteinberg(b *PixelBuffer, k DiffusionKernel) {
	floydSteinberg(b, k)
}

// diffusionReport accumulates, per channel, the error lost to 8-bit residual
// rounding and the error that had no target at the image border.
type diffusionReport struct {
	Rounding [4]float64
	Dropped  [4]float64
}

func floydSteinberg(b *PixelBuffer, k DiffusionKernel) diffusionReport {
	var rep diffusionReport
	wt := k.weights()
	w, h := b.W, b.H
	for y := range h {
		for x := range w {
			offs := pixOffset(w, x, y)
			p := &b.Pix[offs]
			in := [4]float32{p.R, p.G, p.B, p.A}
			var q, e [4]float32
			for c := range 4 {
				q[c] = quantize4(in[c])
				e[c] = residual8(in[c], q[c])
				rep.Rounding[c] += float64(in[c]-q[c]) - float64(e[c])
			}
			*p = Color{q[0], q[1], q[2], q[3]}

			right := x < w-1
			below := y < h-1
			// right, below-left, below, below-right
			targets := [4]struct {
				ok  bool
				idx int
			}{
				{right, offs + 1},
				{below && x > 0, offs + w - 1},
				{below, offs + w},
				{below && right, offs + w + 1},
			}
			// float32(...) keeps each product rounded on its own (no FMA).
			for t, tg := range targets {
				if !tg.ok {
					for c := range 4 {
						rep.Dropped[c] += float64(e[c] * wt[t])
					}
					continue
				}
				n := &b.Pix[tg.idx]
				n.R += float32(e[0] * wt[t])
				n.G += float32(e[1] * wt[t])
				n.B += float32(e[2] * wt[t])
				n.A += float32(e[3] * wt[t])
			}
		}
	}
	return rep
}

// ApplyModifier runs the selected modifier. ModifierNone leaves b untouched.
func ApplyModifier(b *PixelBuffer, k ModifierKind, kernel DiffusionKernel) {
	switch k {
	case ModifierFloydSteinberg:
		FloydSteinberg(b, kernel)
	case ModifierReduced16Bits:
		Reduced16Bits(b)
	}
}
