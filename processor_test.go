package texmod

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

type fakeEncoder struct {
	compressed []PixelFormat
	// Compress fails on this call (1-based); 0 never fails.
	failCompress int
	failEncode   bool
}

func (e *fakeEncoder) Compress(tex *Texture, format PixelFormat, quality CompressionQuality) error {
	e.compressed = append(e.compressed, format)
	if len(e.compressed) == e.failCompress {
		return errors.New("compress failed")
	}
	tex.Format = format
	return nil
}

func (e *fakeEncoder) EncodePNG(tex *Texture) ([]byte, error) {
	if e.failEncode {
		return nil, errors.New("encode failed")
	}
	return []byte("png"), nil
}

func (e *fakeEncoder) EncodeJPG(tex *Texture) ([]byte, error) {
	return []byte("jpg"), nil
}

type fakePalettedEncoder struct {
	fakeEncoder
}

func (e *fakePalettedEncoder) EncodePalettedPNG(tex *Texture, colors int) ([]byte, error) {
	return fmt.Appendf(nil, "p8/%d", colors), nil
}

var errWrite = errors.New("disk full")

type fakeWriter struct {
	events []string
	assets map[string]*Texture
	files  map[string][]byte
	fail   bool
	// Writes to this path fail.
	failPath string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{assets: make(map[string]*Texture), files: make(map[string][]byte)}
}

func (w *fakeWriter) CreateOrOverwriteAsset(path string, tex *Texture) error {
	if w.fail || path == w.failPath {
		return errWrite
	}
	w.events = append(w.events, "asset "+path+" "+tex.Format.String())
	w.assets[path] = tex
	return nil
}

func (w *fakeWriter) WriteFile(path string, data []byte) error {
	if w.fail || path == w.failPath {
		return errWrite
	}
	w.events = append(w.events, "file "+path+" "+string(data))
	w.files[path] = data
	return nil
}

func (w *fakeWriter) DiscardStaged(paths ...string) {
	for _, p := range paths {
		w.events = append(w.events, "discard "+p)
		delete(w.assets, p)
		delete(w.files, p)
	}
}

func (w *fakeWriter) Refresh() error      { w.events = append(w.events, "refresh"); return nil }
func (w *fakeWriter) StartAssetEditing() { w.events = append(w.events, "start") }
func (w *fakeWriter) StopAssetEditing()  { w.events = append(w.events, "stop") }

// testTexture returns a 4x4 mipmapped texture with a transparent corner.
func testTexture() *Texture {
	t := NewTexture(4, 4, FormatRGBA32, true)
	t.Metadata = Metadata{WrapMode: WrapClamp, FilterMode: FilterTrilinear, MipMapBias: -0.5, AnisoLevel: 4}
	pix := make([]Color, 16)
	for i := range pix {
		pix[i] = Color{0.8, 0.3, 0.1, 1}
	}
	pix[0] = Color{0, 0, 0, 0}
	pix[5] = Color{0.2, 0.4, 0.6, 0.5}
	if err := t.SetPixels(pix); err != nil {
		panic(err)
	}
	t.Apply(true)
	return t
}

func TestProcessOutputKinds(t *testing.T) {
	const src = "sprites/hero.png"
	tests := []struct {
		kind     OutputKind
		compress []PixelFormat
		writes   []string
		// Format of the source texture afterwards; RGBA32 means untouched.
		inPlace PixelFormat
	}{
		{OutputConvert16, []PixelFormat{FormatRGBA4444}, nil, FormatRGBA4444},
		{OutputConvertCompressed, []PixelFormat{FormatDXT5}, nil, FormatDXT5},
		{OutputConvertCompressedNoAlpha, []PixelFormat{FormatDXT1}, nil, FormatDXT1},
		{OutputConvertCompressedWithAlphaMask, []PixelFormat{FormatDXT1, FormatDXT1},
			[]string{"asset sprites/heroAlpha.asset DXT1"}, FormatDXT1},
		{OutputStoreCompressed, []PixelFormat{FormatDXT5},
			[]string{"asset sprites/hero.asset DXT5"}, FormatRGBA32},
		{OutputStoreCompressedNoAlpha, []PixelFormat{FormatDXT1},
			[]string{"asset sprites/hero.asset DXT1"}, FormatRGBA32},
		{OutputStoreCompressedWithAlphaMask, []PixelFormat{FormatDXT1, FormatDXT1},
			[]string{"asset sprites/heroAlpha.asset DXT1", "asset sprites/hero.asset DXT1"}, FormatRGBA32},
		{OutputStore16, []PixelFormat{FormatRGBA4444},
			[]string{"asset sprites/hero.asset RGBA4444"}, FormatRGBA32},
		{OutputStore32, []PixelFormat{FormatRGBA32},
			[]string{"asset sprites/hero.asset RGBA32"}, FormatRGBA32},
		{OutputStorePNG, []PixelFormat{FormatRGBA32},
			[]string{"file sprites/heroRGBA.png png"}, FormatRGBA32},
		{OutputStoreJPG, []PixelFormat{FormatRGBA32},
			[]string{"file sprites/heroRGB.jpg jpg"}, FormatRGBA32},
		{OutputStorePalettedPNG, []PixelFormat{FormatRGBA32},
			[]string{"file sprites/heroP8.png p8/256"}, FormatRGBA32},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			enc := &fakePalettedEncoder{}
			w := newFakeWriter()
			p := NewProcessor(enc, w, DefaultOptions())
			tex := testTexture()
			before := tex.GetPixels()

			if err := p.Process(src, tex, Selection{Output: tt.kind}); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !slices.Equal(enc.compressed, tt.compress) {
				t.Errorf("compressed %v, want %v", enc.compressed, tt.compress)
			}
			want := append(append([]string{"start"}, tt.writes...), "refresh", "stop")
			if !slices.Equal(w.events, want) {
				t.Errorf("events %q, want %q", w.events, want)
			}
			if tex.Format != tt.inPlace {
				t.Errorf("source format %s, want %s", tex.Format, tt.inPlace)
			}
			if tt.inPlace == FormatRGBA32 && !slices.Equal(tex.GetPixels(), before) {
				t.Error("store output modified the source texture")
			}
			for path, a := range w.assets {
				if a == tex {
					t.Errorf("%s: stored the source texture itself", path)
				}
				if a.Metadata != tex.Metadata {
					t.Errorf("%s: metadata %+v, want %+v", path, a.Metadata, tex.Metadata)
				}
			}
		})
	}
}

func TestProcessAlphaMask(t *testing.T) {
	w := newFakeWriter()
	p := NewProcessor(&fakeEncoder{}, w, DefaultOptions())
	tex := testTexture()
	if err := p.Process("a.png", tex, Selection{Output: OutputStoreCompressedWithAlphaMask}); err != nil {
		t.Fatal(err)
	}
	mask := w.assets["aAlpha.asset"]
	if mask == nil {
		t.Fatal("no alpha mask written")
	}
	if mask.Mipmaps || mask.MipCount() != 1 {
		t.Errorf("mask has mipmaps (%d levels)", mask.MipCount())
	}
	for i, c := range mask.GetPixels() {
		if want := Gray(tex.GetPixels()[i].A); c != want {
			t.Fatalf("mask pixel %d = %+v, want %+v", i, c, want)
		}
	}
}

func TestProcessNoSelection(t *testing.T) {
	enc := &fakeEncoder{}
	w := newFakeWriter()
	p := NewProcessor(enc, w, DefaultOptions())
	tex := testTexture()
	before := tex.GetPixels()
	if err := p.Process("a.png", tex, Selection{}); err != nil {
		t.Fatal(err)
	}
	if len(w.events) != 0 || len(enc.compressed) != 0 {
		t.Errorf("no-op touched collaborators: %q %v", w.events, enc.compressed)
	}
	if !slices.Equal(tex.GetPixels(), before) {
		t.Error("no-op changed pixels")
	}
}

func TestProcessEffectOnlyWritesBack(t *testing.T) {
	w := newFakeWriter()
	p := NewProcessor(&fakeEncoder{}, w, DefaultOptions())
	tex := testTexture()
	want := &PixelBuffer{W: 4, H: 4, Pix: tex.GetPixels()}
	PremultipliedAlpha(want)

	if err := p.Process("a.png", tex, Selection{Effect: EffectPremultipliedAlpha}); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(tex.GetPixels(), want.Pix) {
		t.Error("effect result not written back into the texture")
	}
	if len(w.assets)+len(w.files) != 0 {
		t.Errorf("effect-only selection wrote %q", w.events)
	}
}

func TestProcessOutputDisabled(t *testing.T) {
	opt := DefaultOptions()
	opt.OutputEnabled = false
	for _, sel := range []Selection{
		{Effect: EffectAlphaBleed, Output: OutputStorePNG},
		{Effect: EffectAlphaBleed},
		{Modifier: ModifierFloydSteinberg, Output: OutputConvert16},
	} {
		enc := &fakeEncoder{}
		w := newFakeWriter()
		p := NewProcessor(enc, w, opt)
		tex := testTexture()
		before := tex.GetPixels()

		if err := p.Process("a.png", tex, sel); err != nil {
			t.Fatal(err)
		}
		if len(w.assets)+len(w.files) != 0 || len(enc.compressed) != 0 {
			t.Errorf("%s: disabled output still encoded or wrote: %q", sel, w.events)
		}
		if !slices.Equal(tex.GetPixels(), before) || tex.Format != FormatRGBA32 {
			t.Errorf("%s: texture changed with output disabled", sel)
		}
	}
}

func TestProcessGeometryError(t *testing.T) {
	enc := &fakeEncoder{}
	w := newFakeWriter()
	p := NewProcessor(enc, w, DefaultOptions())
	tex := testTexture()
	tex.pix = NewPixelBuffer(3, 4)

	err := p.Process("a.png", tex, Selection{Effect: EffectAlphaBleed})
	if !errors.Is(err, ErrGeometry) {
		t.Fatalf("err = %v, want ErrGeometry", err)
	}
	if len(w.events) != 0 {
		t.Errorf("geometry error opened a session: %q", w.events)
	}
}

func TestProcessEncodeFailureWritesNothing(t *testing.T) {
	// The mask compresses fine, the main texture does not.
	enc := &fakeEncoder{failCompress: 2}
	w := newFakeWriter()
	p := NewProcessor(enc, w, DefaultOptions())
	err := p.Process("a.png", testTexture(), Selection{Output: OutputStoreCompressedWithAlphaMask})
	if err == nil {
		t.Fatal("want error")
	}
	if len(w.assets) != 0 {
		t.Errorf("wrote %d assets before encoding finished", len(w.assets))
	}
	if w.events[len(w.events)-1] != "stop" {
		t.Errorf("session left open: %q", w.events)
	}
}

func TestProcessWriteError(t *testing.T) {
	w := newFakeWriter()
	w.fail = true
	p := NewProcessor(&fakeEncoder{}, w, DefaultOptions())
	err := p.Process("a.png", testTexture(), Selection{Output: OutputStore32})
	if !errors.Is(err, errWrite) {
		t.Fatalf("err = %v, want %v", err, errWrite)
	}
	if !strings.Contains(err.Error(), "a.asset") {
		t.Errorf("error %q does not name the destination", err)
	}
}

func TestProcessPalettedNeedsEncoder(t *testing.T) {
	p := NewProcessor(&fakeEncoder{}, newFakeWriter(), DefaultOptions())
	err := p.Process("a.png", testTexture(), Selection{Output: OutputStorePalettedPNG})
	if !errors.Is(err, ErrUnsupportedOutput) {
		t.Fatalf("err = %v, want ErrUnsupportedOutput", err)
	}
}

func TestProcessPlatformFormats(t *testing.T) {
	tests := []struct {
		platform Platform
		want     PixelFormat
	}{
		{PlatformStandalone, FormatDXT5},
		{PlatformAndroid, FormatETCRGB4},
		{PlatformIOS, FormatPVRTCRGBA4},
	}
	for _, tt := range tests {
		enc := &fakeEncoder{}
		opt := DefaultOptions()
		opt.Formats = FormatSpecFor(tt.platform)
		p := NewProcessor(enc, newFakeWriter(), opt)
		tex := testTexture()
		if err := p.Process("a.png", tex, Selection{Output: OutputConvertCompressed}); err != nil {
			t.Fatal(err)
		}
		if tex.Format != tt.want {
			t.Errorf("%s: format %s, want %s", tt.platform, tex.Format, tt.want)
		}
	}
}

func TestProcessBatch(t *testing.T) {
	w := newFakeWriter()
	p := NewProcessor(&fakeEncoder{}, w, DefaultOptions())
	bad := testTexture()
	bad.pix = NewPixelBuffer(1, 1)
	jobs := []Job{
		{Path: "none.png", Texture: testTexture()},
		{Path: "bad.png", Texture: bad, Selection: Selection{Output: OutputStorePNG}},
		{Path: "ok.png", Texture: testTexture(), Selection: Selection{Effect: EffectAlphaBleed, Output: OutputStorePNG}},
	}
	err := p.ProcessBatch(jobs)
	if !errors.Is(err, ErrGeometry) {
		t.Fatalf("err = %v, want ErrGeometry", err)
	}
	want := []string{"start", "file okRGBA.png png", "refresh", "stop"}
	if !slices.Equal(w.events, want) {
		t.Errorf("events %q, want %q", w.events, want)
	}
}

func TestProcessBatchNothingSelected(t *testing.T) {
	w := newFakeWriter()
	p := NewProcessor(&fakeEncoder{}, w, DefaultOptions())
	if err := p.ProcessBatch([]Job{{Path: "a.png", Texture: testTexture()}}); err != nil {
		t.Fatal(err)
	}
	if len(w.events) != 0 {
		t.Errorf("events %q, want none", w.events)
	}
}

func TestProcessWithdrawsPartialWrites(t *testing.T) {
	sel := Selection{Output: OutputStoreCompressedWithAlphaMask}

	w := newFakeWriter()
	w.failPath = "a.asset"
	p := NewProcessor(&fakeEncoder{}, w, DefaultOptions())
	err := p.ProcessBatch([]Job{
		{Path: "a.png", Texture: testTexture(), Selection: sel},
		{Path: "b.png", Texture: testTexture(), Selection: sel},
	})
	if !errors.Is(err, errWrite) {
		t.Fatalf("err = %v, want %v", err, errWrite)
	}
	if _, ok := w.assets["aAlpha.asset"]; ok {
		t.Error("mask of the failed texture survived")
	}
	if w.assets["bAlpha.asset"] == nil || w.assets["b.asset"] == nil {
		t.Errorf("second texture not written: %q", w.events)
	}
	want := []string{
		"start",
		"asset aAlpha.asset DXT1",
		"discard aAlpha.asset",
		"asset bAlpha.asset DXT1",
		"asset b.asset DXT1",
		"refresh",
		"stop",
	}
	if !slices.Equal(w.events, want) {
		t.Errorf("events %q, want %q", w.events, want)
	}
}
