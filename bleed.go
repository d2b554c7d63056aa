package texmod

import (
	"slices"
	"sync"
)

const (
	// Pixels at or below this alpha are bled; only pixels above it feed the bleed.
	bleedThreshold = 0.125
	bleedRingCount = 12
)

// RingOffset is a neighbour position relative to the pixel being bled.
type RingOffset struct {
	DX, DY int
}

// BleedRings returns the shared ring table: entry i holds the 8(i+1) offsets
// at Chebyshev distance i+1. Callers must not modify it.
var BleedRings = sync.OnceValue(buildBleedRings)

func buildBleedRings() [][]RingOffset {
	rings := make([][]RingOffset, 0, bleedRingCount)
	for i := 1; i <= bleedRingCount; i++ {
		ring := make([]RingOffset, 0, 8*i)
		for x := -i; x <= i; x++ {
			ring = append(ring, RingOffset{x, i}, RingOffset{-x, -i})
		}
		for y := -i + 1; y <= i-1; y++ {
			ring = append(ring, RingOffset{i, y}, RingOffset{-i, -y})
		}
		rings = append(rings, ring)
	}
	return rings
}

// bleedFactor is the weight of the neighbour average for a 1-based ring
// index: 1 up to ring 7, then falling by 1/6 per ring.
func bleedFactor(ring int) float32 {
	return min(1, float32(13-ring)/6)
}

// AlphaBleed extrapolates colour into (nearly) transparent pixels so that
// filtering and block compression do not pull dark or random colour in at
// the edges of opaque regions. Alpha is never changed.
//
// Every pixel with alpha <= 0.125 becomes mid-gray, then takes the
// alpha-weighted average of the qualifying neighbours in the nearest
// non-empty ring, blended with the gray by bleedFactor. Neighbours are read
// from the input snapshot, so the result does not depend on scan order.
func AlphaBleed(b *PixelBuffer) {
	rings := BleedRings()
	src := slices.Clone(b.Pix)
	w, h := b.W, b.H
	for y := range h {
		for x := range w {
			pos := pixOffset(w, x, y)
			a := src[pos].A
			if a > bleedThreshold {
				continue
			}
			out := Color{0.5, 0.5, 0.5, a}
			for i, ring := range rings {
				var r, g, bl, c float32
				for _, off := range ring {
					xp, yp := x+off.DX, y+off.DY
					if xp < 0 || xp >= w || yp < 0 || yp >= h {
						continue
					}
					n := src[pixOffset(w, xp, yp)]
					if n.A > bleedThreshold {
						r += float32(n.R * n.A)
						g += float32(n.G * n.A)
						bl += float32(n.B * n.A)
						c += n.A
					}
				}
				if c > 0 {
					fac := bleedFactor(i + 1)
					out = Color{
						R: float32(r/c*fac) + float32(out.R*(1-fac)),
						G: float32(g/c*fac) + float32(out.G*(1-fac)),
						B: float32(bl/c*fac) + float32(out.B*(1-fac)),
						A: a,
					}
					break
				}
			}
			b.Pix[pos] = out
		}
	}
}
