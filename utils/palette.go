package utils

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/setanarut/texmod"
)

type PaletteMethod int

const (
	PaletteMethodKMeans PaletteMethod = iota
	PaletteMethodDominantColor
)

// Pixels at or below this alpha do not contribute to a palette.
const paletteAlphaCutoff = 0.5

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodDominantColor:
		return "dominantcolor"
	default:
		return "kmeans"
	}
}

func ParsePaletteMethod(s string) PaletteMethod {
	if s == PaletteMethodDominantColor.String() {
		return PaletteMethodDominantColor
	}
	return PaletteMethodKMeans
}

// SortPaletteByBrightness orders colors from darkest to brightest.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortFunc(palette, func(a, b colorful.Color) int {
		ri, gi, bi := a.LinearRgb()
		rj, gj, bj := b.LinearRgb()
		yi := 0.2126*ri + 0.7152*gi + 0.0722*bi
		yj := 0.2126*rj + 0.7152*gj + 0.0722*bj
		if yi < yj {
			return -1
		}
		if yi > yj {
			return 1
		}
		return 0
	})
}

// OpaqueImage renders buf with alpha forced to 255. Transparent texels keep
// whatever colour bleeding gave them.
func OpaqueImage(buf *texmod.PixelBuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, buf.W, buf.H))
	for y := range buf.H {
		for x := range buf.W {
			c := buf.At(x, y).NRGBA()
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img
}

func ExtractDominantPalette(buf *texmod.PixelBuffer, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}

	nCandidates := max(24, k*8)
	candidates := dominantcolor.FindWeight(OpaqueImage(buf), nCandidates)
	if len(candidates) == 0 {
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}

	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		weighted = append(weighted, weightedColor{Col: col.Clamped(), Weight: max(c.Weight, 1e-6)})
	}
	return SelectDiverseWeightedColors(weighted, k)
}

// SelectDiverseWeightedColors greedily picks k candidates, starting from the
// heaviest, each time taking the one farthest in Lab from those already
// chosen (scaled by its weight).
func SelectDiverseWeightedColors(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	type item struct {
		col colorful.Color
		lab [3]float64
		w   float64
	}
	items := make([]item, 0, len(cands))
	maxW := 0.0
	for _, c := range cands {
		col := c.Col.Clamped()
		l, a, b := col.Lab()
		w := max(c.Weight, 1e-6)
		maxW = max(maxW, w)
		items = append(items, item{col: col, lab: [3]float64{l, a, b}, w: w})
	}
	k = min(k, len(items))

	selected := make([]bool, len(items))
	order := make([]int, 0, k)
	seed := 0
	for i := range items {
		if items[i].w > items[seed].w {
			seed = i
		}
	}
	order = append(order, seed)
	selected[seed] = true

	for len(order) < k {
		bestIdx, bestScore := -1, -1.0
		for i := range items {
			if selected[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range order {
				d0 := items[i].lab[0] - items[s].lab[0]
				d1 := items[i].lab[1] - items[s].lab[1]
				d2 := items[i].lab[2] - items[s].lab[2]
				minD2 = min(minD2, d0*d0+d1*d1+d2*d2)
			}
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(items[i].w/maxW))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		order = append(order, bestIdx)
	}

	out := make([]colorful.Color, 0, len(order))
	for _, idx := range order {
		out = append(out, items[idx].col)
	}
	return out
}

// ExtractKMeansPalette clusters the visible texels (subsampled on large
// textures) and keeps k diverse cluster centers.
func ExtractKMeansPalette(buf *texmod.PixelBuffer, k int) []colorful.Color {
	if k <= 0 || buf.W == 0 || buf.H == 0 {
		return nil
	}

	maxSamples := 12000
	step := 1
	if buf.W*buf.H > maxSamples {
		step = int(math.Sqrt(float64(buf.W*buf.H)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(buf.W*buf.H, maxSamples))
	for y := 0; y < buf.H; y += step {
		for x := 0; x < buf.W; x += step {
			c := buf.At(x, y)
			if c.A <= paletteAlphaCutoff {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(max(0, min(1, c.R))),
				float64(max(0, min(1, c.G))),
				float64(max(0, min(1, c.B))),
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	workK := min(max(k*4, k+2), len(dataset))
	cc, err := kmeans.New().Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	// Most populated clusters first.
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		weighted = append(weighted, weightedColor{Col: col, Weight: float64(len(c.Observations))})
	}
	return SelectDiverseWeightedColors(weighted, k)
}

// ExtractPalette returns up to k colors. K-means falls back to the
// dominant-color method when it finds nothing (e.g. a fully transparent
// texture).
func ExtractPalette(buf *texmod.PixelBuffer, k int, method PaletteMethod) []colorful.Color {
	switch method {
	case PaletteMethodKMeans:
		p := ExtractKMeansPalette(buf, k)
		if len(p) != 0 {
			return p
		}
		texmod.Logger().Warn("kmeans returned empty palette, falling back to dominantcolor")
		return ExtractDominantPalette(buf, k)
	default:
		return ExtractDominantPalette(buf, k)
	}
}

// NearestColor returns the index of the palette entry closest to c in Lab.
func NearestColor(palette []colorful.Color, c colorful.Color) int {
	best, bestD := 0, math.MaxFloat64
	for i, p := range palette {
		if d := c.DistanceLab(p); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
