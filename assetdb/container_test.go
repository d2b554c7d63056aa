package assetdb

import (
	"bytes"
	"testing"

	"github.com/setanarut/texmod"
)

func sampleTexture() *texmod.Texture {
	tex := texmod.NewTexture(6, 5, texmod.FormatRGBA4444, true)
	tex.Metadata = texmod.Metadata{WrapMode: texmod.WrapMirror, FilterMode: texmod.FilterPoint, MipMapBias: 0.25, AnisoLevel: 8}
	pix := make([]texmod.Color, 30)
	for i := range pix {
		v := float32(i%16) / 15
		pix[i] = texmod.Color{R: v, G: 1 - v, B: 0.2, A: float32(i%4) / 3}
	}
	if err := tex.SetPixels(pix); err != nil {
		panic(err)
	}
	tex.Apply(true)
	return tex
}

func TestHeaderRoundTrip(t *testing.T) {
	g, err := NewGUID()
	if err != nil {
		t.Fatal(err)
	}
	h := Header{
		GUID:     g,
		Format:   texmod.FormatDXT5,
		Width:    1024,
		Height:   512,
		Mipmaps:  true,
		Levels:   11,
		Metadata: texmod.Metadata{WrapMode: texmod.WrapClamp, FilterMode: texmod.FilterTrilinear, MipMapBias: -1.5, AnisoLevel: 16},
	}
	enc, err := MarshalHeader(h)
	if err != nil {
		t.Fatalf("MarshalHeader: %v", err)
	}
	got, err := ParseHeader(enc[:])
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if got != h {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, h)
	}
	if !bytes.Equal(enc[0:4], []byte("TXMA")) {
		t.Fatalf("unexpected magic: %x", enc[0:4])
	}
}

func TestParseHeaderErrors(t *testing.T) {
	valid, err := MarshalHeader(Header{Format: texmod.FormatRGBA32, Width: 1, Height: 1, Levels: 1})
	if err != nil {
		t.Fatal(err)
	}
	corrupt := func(i int, b byte) []byte {
		d := bytes.Clone(valid[:])
		d[i] = b
		return d
	}
	tests := map[string][]byte{
		"short":   valid[:HeaderSize-1],
		"magic":   corrupt(0, 'X'),
		"version": corrupt(4, 9),
		"format":  corrupt(5, 200),
		"levels":  corrupt(7, 0),
		"width":   corrupt(12, 0),
	}
	for name, data := range tests {
		if _, err := ParseHeader(data); err == nil {
			t.Errorf("%s: ParseHeader accepted corrupt header", name)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	tex := sampleTexture()
	g, _ := NewGUID()
	data, err := Marshal(g, tex)
	if err != nil {
		t.Fatal(err)
	}
	h, got, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.GUID != g || got.Format != tex.Format || got.Metadata != tex.Metadata || !got.Mipmaps {
		t.Fatalf("header %+v, texture %+v", h, got)
	}
	if got.MipCount() != tex.MipCount() {
		t.Fatalf("MipCount = %d, want %d", got.MipCount(), tex.MipCount())
	}
	for l := range tex.MipCount() {
		want, have := tex.Level(l), got.Level(l)
		if want.W != have.W || want.H != have.H {
			t.Fatalf("level %d: %dx%d, want %dx%d", l, have.W, have.H, want.W, want.H)
		}
		for i := range want.Pix {
			if want.Pix[i].NRGBA() != have.Pix[i].NRGBA() {
				t.Fatalf("level %d pixel %d: %+v, want %+v", l, i, have.Pix[i].NRGBA(), want.Pix[i].NRGBA())
			}
		}
	}
}

func TestUnmarshalTruncated(t *testing.T) {
	g, _ := NewGUID()
	data, err := Marshal(g, sampleTexture())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := Unmarshal(data[:len(data)-5]); err == nil {
		t.Fatal("Unmarshal accepted a truncated asset")
	}
}

func TestNewGUID(t *testing.T) {
	a, err := NewGUID()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewGUID()
	if a == b || a.IsZero() {
		t.Fatalf("GUIDs %s and %s", a, b)
	}
	if a[6]>>4 != 4 {
		t.Errorf("version nibble %x, want 4", a[6]>>4)
	}
	if len(a.String()) != 32 {
		t.Errorf("String() = %q", a.String())
	}
}
