package texmod

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

type Options struct {
	// Global switch for the output stage. With the switch off a selection
	// leaves the texture untouched and nothing is written.
	OutputEnabled bool
	// Compressed formats of the deployment target.
	Formats FormatSpec
	// Passed to every Encoder.Compress call.
	Quality CompressionQuality
	// Floyd–Steinberg weights.
	Diffusion DiffusionKernel
	// Palette size for OutputStorePalettedPNG, including the transparent entry.
	PaletteColors int
}

func DefaultOptions() Options {
	return Options{
		OutputEnabled: true,
		Formats:       FormatSpecFor(PlatformStandalone),
		Quality:       QualityBest,
		Diffusion:     DiffusionStandard,
		PaletteColors: 256,
	}
}

// Processor runs the effect -> modifier -> output pipeline for textures of
// one host.
type Processor struct {
	Encoder Encoder
	Writer  AssetWriter
	Options Options
}

func NewProcessor(enc Encoder, w AssetWriter, opt Options) *Processor {
	return &Processor{Encoder: enc, Writer: w, Options: opt}
}

// Job is one texture of a batch.
type Job struct {
	Path      string
	Texture   *Texture
	Selection Selection
}

// Process runs the pipeline for a single texture inside its own editing
// session. A zero selection returns immediately without touching tex or the
// writer.
func (p *Processor) Process(assetPath string, tex *Texture, sel Selection) error {
	if sel.IsZero() {
		return nil
	}
	if err := tex.Validate(); err != nil {
		return fmt.Errorf("%s: %w", assetPath, err)
	}
	p.Writer.StartAssetEditing()
	defer p.Writer.StopAssetEditing()
	if err := p.process(assetPath, tex, sel); err != nil {
		return err
	}
	return p.Writer.Refresh()
}

// ProcessBatch runs every job inside one editing session and refreshes once
// at the end. A failing job does not stop the others and keeps none of its
// writes when the writer is a StagedDiscarder; all failures are returned
// joined.
func (p *Processor) ProcessBatch(jobs []Job) error {
	if !slices.ContainsFunc(jobs, func(j Job) bool { return !j.Selection.IsZero() }) {
		return nil
	}
	p.Writer.StartAssetEditing()
	defer p.Writer.StopAssetEditing()

	var errs []error
	for _, j := range jobs {
		if j.Selection.IsZero() {
			continue
		}
		if err := j.Texture.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", j.Path, err))
			continue
		}
		if err := p.process(j.Path, j.Texture, j.Selection); err != nil {
			Logger().Warn("texture skipped", "path", j.Path, "err", err)
			errs = append(errs, err)
		}
	}
	if err := p.Writer.Refresh(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p *Processor) process(assetPath string, tex *Texture, sel Selection) error {
	if !p.Options.OutputEnabled {
		Logger().Debug("output stage disabled", "path", assetPath, "selection", sel.String())
		return nil
	}
	start := time.Now()
	buf := &PixelBuffer{W: tex.Width, H: tex.Height, Pix: tex.GetPixels()}

	ApplyEffect(buf, sel.Effect)
	ApplyModifier(buf, sel.Modifier, p.Options.Diffusion)
	Logger().Debug("pixels processed",
		"path", assetPath,
		"size", fmt.Sprintf("%dx%d", buf.W, buf.H),
		"selection", sel.String(),
		"elapsed", time.Since(start))

	writes, err := p.output(assetPath, tex, buf, sel, sel.Output)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", assetPath, sel.Output, err)
	}
	return p.commit(assetPath, writes)
}

// commit hands writes to the writer. When one fails, the writes of the same
// texture that already went through are withdrawn if the writer supports it,
// so a texture is written completely or not at all.
func (p *Processor) commit(assetPath string, writes []pendingWrite) error {
	done := make([]string, 0, len(writes))
	for _, w := range writes {
		if err := w.commit(p.Writer); err != nil {
			if d, ok := p.Writer.(StagedDiscarder); ok && len(done) > 0 {
				d.DiscardStaged(done...)
				Logger().Debug("withdrew partial writes", "source", assetPath, "paths", done)
			}
			return fmt.Errorf("%s: %w", assetPath, err)
		}
		done = append(done, w.path)
	}
	for _, path := range done {
		Logger().Info("asset written", "source", assetPath, "path", path)
	}
	return nil
}

// ============ OUTPUT DECISION ============

// output applies the processed buffer according to kind and returns the
// writes it requires. All encoding happens here, before anything is written.
func (p *Processor) output(assetPath string, tex *Texture, buf *PixelBuffer, sel Selection, kind OutputKind) ([]pendingWrite, error) {
	f := p.Options.Formats
	switch kind {
	case OutputConvert16:
		return nil, p.convert(tex, buf, FormatRGBA4444)
	case OutputConvertCompressed:
		return nil, p.convert(tex, buf, f.WithAlpha)
	case OutputConvertCompressedNoAlpha:
		return nil, p.convert(tex, buf, f.Opaque)
	case OutputConvertCompressedWithAlphaMask:
		mask, err := p.alphaMask(assetPath, tex, buf)
		if err != nil {
			return nil, err
		}
		return []pendingWrite{mask}, p.convert(tex, buf, f.Opaque)

	case OutputStoreCompressed:
		return p.storeAsset(assetPath, tex, buf, f.WithAlpha)
	case OutputStoreCompressedNoAlpha:
		return p.storeAsset(assetPath, tex, buf, f.Opaque)
	case OutputStoreCompressedWithAlphaMask:
		mask, err := p.alphaMask(assetPath, tex, buf)
		if err != nil {
			return nil, err
		}
		writes, err := p.storeAsset(assetPath, tex, buf, f.Opaque)
		if err != nil {
			return nil, err
		}
		return append([]pendingWrite{mask}, writes...), nil
	case OutputStore16:
		return p.storeAsset(assetPath, tex, buf, FormatRGBA4444)
	case OutputStore32:
		return p.storeAsset(assetPath, tex, buf, FormatRGBA32)

	case OutputStorePNG:
		return p.storeFile(assetPath, tex, buf, kind, p.Encoder.EncodePNG)
	case OutputStoreJPG:
		return p.storeFile(assetPath, tex, buf, kind, p.Encoder.EncodeJPG)
	case OutputStorePalettedPNG:
		pe, ok := p.Encoder.(PalettedEncoder)
		if !ok {
			return nil, ErrUnsupportedOutput
		}
		colors := p.Options.PaletteColors
		return p.storeFile(assetPath, tex, buf, kind, func(t *Texture) ([]byte, error) {
			return pe.EncodePalettedPNG(t, colors)
		})

	case OutputNone:
		if sel.Effect == EffectNone && sel.Modifier == ModifierNone {
			return nil, nil
		}
		if err := tex.SetPixels(buf.Pix); err != nil {
			return nil, err
		}
		tex.Apply(true)
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedOutput, uint8(kind))
}

// convert writes buf back into the source texture and compresses it there.
func (p *Processor) convert(tex *Texture, buf *PixelBuffer, format PixelFormat) error {
	if err := tex.SetPixels(buf.Pix); err != nil {
		return err
	}
	tex.Apply(true)
	return p.Encoder.Compress(tex, format, p.Options.Quality)
}

// build creates a fresh texture from src's metadata holding buf.
func build(src *Texture, buf *PixelBuffer) (*Texture, error) {
	t := BuildTexture(src, FormatRGBA32)
	if err := t.SetPixels(buf.Pix); err != nil {
		return nil, err
	}
	t.Apply(true)
	return t, nil
}

func (p *Processor) storeAsset(assetPath string, src *Texture, buf *PixelBuffer, format PixelFormat) ([]pendingWrite, error) {
	t, err := build(src, buf)
	if err != nil {
		return nil, err
	}
	if err := p.Encoder.Compress(t, format, p.Options.Quality); err != nil {
		return nil, err
	}
	return []pendingWrite{{path: SiblingPath(assetPath, assetSuffix), tex: t}}, nil
}

func (p *Processor) storeFile(assetPath string, src *Texture, buf *PixelBuffer, kind OutputKind, encode func(*Texture) ([]byte, error)) ([]pendingWrite, error) {
	t, err := build(src, buf)
	if err != nil {
		return nil, err
	}
	if err := p.Encoder.Compress(t, FormatRGBA32, p.Options.Quality); err != nil {
		return nil, err
	}
	data, err := encode(t)
	if err != nil {
		return nil, err
	}
	return []pendingWrite{{path: OutputPath(assetPath, kind), data: data}}, nil
}

// alphaMask builds and compresses the mask of buf in the opaque format.
func (p *Processor) alphaMask(assetPath string, src *Texture, buf *PixelBuffer) (pendingWrite, error) {
	mask, err := BuildAlphaMask(src, buf.Pix)
	if err != nil {
		return pendingWrite{}, err
	}
	if err := p.Encoder.Compress(mask, p.Options.Formats.Opaque, p.Options.Quality); err != nil {
		return pendingWrite{}, err
	}
	return pendingWrite{path: AlphaMaskPath(assetPath), tex: mask}, nil
}
