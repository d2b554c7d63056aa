package utils

import (
	"math"
	"testing"

	"github.com/setanarut/texmod"
)

func TestStats(t *testing.T) {
	buf := &texmod.PixelBuffer{W: 2, H: 2, Pix: []texmod.Color{
		{R: 0, G: 1, B: 0.5, A: 1},
		{R: 1, G: 1, B: 0.5, A: 0.5},
		{R: 0, G: 1, B: 0.5, A: 0},
		{R: 1, G: 1, B: 0.5, A: 0.1},
	}}
	s := Stats(buf)
	r := s.Channels[0]
	if r.Mean != 0.5 || r.Min != 0 || r.Max != 1 || r.Levels != 2 {
		t.Errorf("R stats %+v", r)
	}
	// Sample standard deviation of {0,1,0,1}.
	if want := math.Sqrt(1.0 / 3); math.Abs(r.StdDev-want) > 1e-9 {
		t.Errorf("R stddev = %v, want %v", r.StdDev, want)
	}
	if g := s.Channels[1]; g.StdDev != 0 || g.Levels != 1 {
		t.Errorf("G stats %+v", g)
	}
	if s.Transparent != 0.5 || s.Translucent != 0.5 {
		t.Errorf("transparent %v translucent %v, want 0.5 and 0.5", s.Transparent, s.Translucent)
	}
	if s.String() == "" {
		t.Error("empty String()")
	}
}

func TestStatsEdgeCases(t *testing.T) {
	if s := Stats(texmod.NewPixelBuffer(0, 0)); s.Channels[0] != (ChannelStats{}) {
		t.Errorf("empty buffer stats %+v", s)
	}
	one := texmod.NewPixelBuffer(1, 1)
	one.Pix[0] = texmod.Color{R: 0.3, A: 1}
	if s := Stats(one); s.Channels[0].StdDev != 0 || math.IsNaN(s.Channels[0].Mean) {
		t.Errorf("single pixel stats %+v", s.Channels[0])
	}
}

func TestCompare(t *testing.T) {
	a := texmod.NewPixelBuffer(4, 4)
	for i := range a.Pix {
		a.Pix[i] = texmod.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	}
	d, err := Compare(a, a.Clone())
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(d.PSNR, 1) || d.RGBRMSE != 0 || d.MeanDeltaE != 0 {
		t.Errorf("identical buffers: %s", d)
	}

	b := a.Clone()
	for i := range b.Pix {
		b.Pix[i].R = 0.6
	}
	d, err = Compare(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d.RMSE[0]-0.1) > 1e-6 || d.RMSE[1] != 0 {
		t.Errorf("RMSE %v, want [0.1 0 0 0]", d.RMSE)
	}
	// MSE over RGB is 0.01/3.
	if want := 10 * math.Log10(300); math.Abs(d.PSNR-want) > 1e-3 {
		t.Errorf("PSNR = %v, want %v", d.PSNR, want)
	}
	if d.MeanDeltaE <= 0 {
		t.Errorf("MeanDeltaE = %v, want > 0", d.MeanDeltaE)
	}

	if _, err := Compare(a, texmod.NewPixelBuffer(2, 2)); err == nil {
		t.Error("size mismatch accepted")
	}
}
