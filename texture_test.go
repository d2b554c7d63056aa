package texmod

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestMipChain(t *testing.T) {
	tex := NewTexture(5, 3, FormatRGBA32, true)
	tex.Apply(true)
	want := [][2]int{{5, 3}, {2, 1}, {1, 1}}
	if tex.MipCount() != len(want) {
		t.Fatalf("MipCount = %d, want %d", tex.MipCount(), len(want))
	}
	for i, wh := range want {
		l := tex.Level(i)
		if l.W != wh[0] || l.H != wh[1] {
			t.Errorf("level %d is %dx%d, want %dx%d", i, l.W, l.H, wh[0], wh[1])
		}
	}
	if tex.Level(len(want)) != nil || tex.Level(-1) != nil {
		t.Error("out of range level not nil")
	}

	tex.Mipmaps = false
	tex.Apply(true)
	if tex.MipCount() != 1 {
		t.Errorf("MipCount without mipmaps = %d", tex.MipCount())
	}
}

func TestMipAverages(t *testing.T) {
	tex := NewTexture(2, 2, FormatRGBA32, true)
	if err := tex.SetPixels([]Color{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}, {1, 1, 1, 0}}); err != nil {
		t.Fatal(err)
	}
	tex.Apply(true)
	if got, want := tex.Level(1).Pix[0], (Color{0.5, 0.5, 0.5, 0.75}); got != want {
		t.Fatalf("level 1 = %+v, want %+v", got, want)
	}
}

func TestSetPixelsGeometry(t *testing.T) {
	tex := NewTexture(2, 2, FormatRGBA32, false)
	if err := tex.SetPixels(make([]Color, 3)); !errors.Is(err, ErrGeometry) {
		t.Fatalf("err = %v, want ErrGeometry", err)
	}
	if err := tex.Validate(); err != nil {
		t.Fatalf("failed SetPixels broke the texture: %v", err)
	}
}

func TestGetPixelsCopies(t *testing.T) {
	tex := NewTexture(1, 1, FormatRGBA32, false)
	pix := tex.GetPixels()
	pix[0] = Color{1, 1, 1, 1}
	if tex.GetPixels()[0] == pix[0] {
		t.Fatal("GetPixels aliases texture storage")
	}
}

func TestBuildTexture(t *testing.T) {
	src := testTexture()
	dst := BuildTexture(src, FormatRGBA4444)
	if dst.Metadata != src.Metadata || !dst.Mipmaps || dst.Format != FormatRGBA4444 {
		t.Errorf("BuildTexture = %+v", dst)
	}
	for i, p := range dst.GetPixels() {
		if p != (Color{}) {
			t.Fatalf("pixel %d copied from source: %+v", i, p)
		}
	}
}

func TestTextureFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(2, 1, color.NRGBA{R: 255, G: 0, B: 51, A: 128})
	tex := TextureFromImage(img, false)
	if tex.Width != 3 || tex.Height != 2 || tex.Format != FormatRGBA32 {
		t.Fatalf("texture %dx%d %s", tex.Width, tex.Height, tex.Format)
	}
	if got := tex.Level(0).At(2, 1).NRGBA(); got != (color.NRGBA{R: 255, G: 0, B: 51, A: 128}) {
		t.Errorf("pixel = %+v", got)
	}
	if got := tex.Image().NRGBAAt(2, 1); got != (color.NRGBA{R: 255, G: 0, B: 51, A: 128}) {
		t.Errorf("Image() pixel = %+v", got)
	}
}

func TestPixelFormats(t *testing.T) {
	for f := FormatRGBA32; f.Valid(); f++ {
		got, err := ParsePixelFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParsePixelFormat(%q) = %v, %v", f.String(), got, err)
		}
	}
	if FormatDXT1.HasAlpha() || !FormatDXT5.HasAlpha() || FormatETCRGB4.HasAlpha() {
		t.Error("wrong alpha capability")
	}
	if !FormatPVRTCRGBA4.Block() || FormatRGBA4444.Block() {
		t.Error("wrong block flag")
	}
	if _, err := ParsePixelFormat("ASTC_4x4"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFormatSpecFor(t *testing.T) {
	tests := []struct {
		name string
		want FormatSpec
	}{
		{"standalone", FormatSpec{FormatDXT1, FormatDXT5}},
		{"android", FormatSpec{FormatETCRGB4, FormatETCRGB4}},
		{"iPhone", FormatSpec{FormatPVRTCRGB4, FormatPVRTCRGBA4}},
	}
	for _, tt := range tests {
		p, err := ParsePlatform(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		if got := FormatSpecFor(p); got != tt.want {
			t.Errorf("%s: %s, want %s", tt.name, got, tt.want)
		}
	}
}
