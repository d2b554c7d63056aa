package utils

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/texmod"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChannelStats summarises one channel of a buffer.
type ChannelStats struct {
	Mean, StdDev, Min, Max float64
	// Number of distinct 8-bit values.
	Levels int
}

// BufferStats holds per-channel statistics plus alpha coverage.
type BufferStats struct {
	W, H     int
	Channels [4]ChannelStats // R, G, B, A
	// Fraction of pixels with alpha <= 0.125 (the ones alpha bleed rewrites).
	Transparent float64
	// Fraction of pixels with 0 < alpha < 1.
	Translucent float64
}

func (s BufferStats) String() string {
	out := fmt.Sprintf("%dx%d transparent=%.1f%% translucent=%.1f%%\n", s.W, s.H, s.Transparent*100, s.Translucent*100)
	for i, n := range []string{"R", "G", "B", "A"} {
		c := s.Channels[i]
		out += fmt.Sprintf("  %s mean=%.4f sd=%.4f min=%.4f max=%.4f levels=%d\n", n, c.Mean, c.StdDev, c.Min, c.Max, c.Levels)
	}
	return out
}

func channels(buf *texmod.PixelBuffer) [4][]float64 {
	var ch [4][]float64
	for i := range ch {
		ch[i] = make([]float64, len(buf.Pix))
	}
	for i, p := range buf.Pix {
		ch[0][i] = float64(p.R)
		ch[1][i] = float64(p.G)
		ch[2][i] = float64(p.B)
		ch[3][i] = float64(p.A)
	}
	return ch
}

// Stats computes BufferStats. An empty buffer yields zero values.
func Stats(buf *texmod.PixelBuffer) BufferStats {
	s := BufferStats{W: buf.W, H: buf.H}
	if len(buf.Pix) == 0 {
		return s
	}
	ch := channels(buf)
	for i, v := range ch {
		mean, sd := stat.MeanStdDev(v, nil)
		if len(v) < 2 {
			sd = 0
		}
		levels := make(map[uint8]struct{})
		for _, x := range v {
			levels[uint8(max(0, min(255, x*255+0.5)))] = struct{}{}
		}
		s.Channels[i] = ChannelStats{
			Mean:   mean,
			StdDev: sd,
			Min:    floats.Min(v),
			Max:    floats.Max(v),
			Levels: len(levels),
		}
	}
	n := float64(len(buf.Pix))
	for _, a := range ch[3] {
		if a <= 0.125 {
			s.Transparent++
		}
		if a > 0 && a < 1 {
			s.Translucent++
		}
	}
	s.Transparent /= n
	s.Translucent /= n
	return s
}

// Difference compares two buffers of equal size.
type Difference struct {
	// Root mean square error per channel and over RGB.
	RMSE    [4]float64
	RGBRMSE float64
	// Peak signal to noise ratio over RGB in dB; +Inf for identical input.
	PSNR float64
	// Mean CIE76 distance of visible (alpha > 0) pixels.
	MeanDeltaE float64
}

func (d Difference) String() string {
	return fmt.Sprintf("rmse r=%.5f g=%.5f b=%.5f a=%.5f rgb=%.5f psnr=%.2fdB deltaE=%.3f",
		d.RMSE[0], d.RMSE[1], d.RMSE[2], d.RMSE[3], d.RGBRMSE, d.PSNR, d.MeanDeltaE)
}

func Compare(a, b *texmod.PixelBuffer) (Difference, error) {
	var d Difference
	if a.W != b.W || a.H != b.H {
		return d, fmt.Errorf("utils: size mismatch %dx%d vs %dx%d", a.W, a.H, b.W, b.H)
	}
	if len(a.Pix) == 0 {
		d.PSNR = math.Inf(1)
		return d, nil
	}
	ca, cb := channels(a), channels(b)
	n := float64(len(a.Pix))
	var rgbSq float64
	for i := range 4 {
		dist := floats.Distance(ca[i], cb[i], 2)
		d.RMSE[i] = dist / math.Sqrt(n)
		if i < 3 {
			rgbSq += dist * dist
		}
	}
	mse := rgbSq / (3 * n)
	d.RGBRMSE = math.Sqrt(mse)
	if mse == 0 {
		d.PSNR = math.Inf(1)
	} else {
		d.PSNR = 10 * math.Log10(1/mse)
	}

	var de []float64
	for i := range a.Pix {
		if a.Pix[i].A <= 0 && b.Pix[i].A <= 0 {
			continue
		}
		de = append(de, toColorful(a.Pix[i]).DistanceLab(toColorful(b.Pix[i])))
	}
	if len(de) > 0 {
		d.MeanDeltaE = stat.Mean(de, nil)
	}
	return d, nil
}

func toColorful(c texmod.Color) colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Clamped()
}
