package texmod

import (
	"fmt"
	"path"
	"strings"
)

// Encoder is the image compression and encoding service.
type Encoder interface {
	// Compress converts tex in place to format, including its mip chain.
	Compress(tex *Texture, format PixelFormat, quality CompressionQuality) error
	// EncodePNG returns tex as a lossless RGBA image file.
	EncodePNG(tex *Texture) ([]byte, error)
	// EncodeJPG returns tex as a lossy RGB image file; alpha is discarded.
	EncodeJPG(tex *Texture) ([]byte, error)
}

// PalettedEncoder is implemented by encoders that can produce palette PNGs.
type PalettedEncoder interface {
	EncodePalettedPNG(tex *Texture, colors int) ([]byte, error)
}

// AssetWriter persists pipeline results in the host's asset storage.
//
// Writes issued between StartAssetEditing and StopAssetEditing belong to
// one editing session; Refresh makes them visible. CreateOrOverwriteAsset
// must keep the identity of an existing asset at path.
type AssetWriter interface {
	CreateOrOverwriteAsset(path string, tex *Texture) error
	WriteFile(path string, data []byte) error
	Refresh() error
	StartAssetEditing()
	StopAssetEditing()
}

// StagedDiscarder is implemented by writers that can withdraw writes staged
// in the current editing session before Refresh. Paths that were not staged
// are ignored.
type StagedDiscarder interface {
	DiscardStaged(paths ...string)
}

const (
	assetSuffix     = ".asset"
	alphaMaskSuffix = "Alpha.asset"
	pngSuffix       = "RGBA.png"
	jpgSuffix       = "RGB.jpg"
	palettedSuffix  = "P8.png"
)

// SiblingPath replaces the extension of assetPath with suffix:
// "ui/button.png" + "Alpha.asset" gives "ui/buttonAlpha.asset". Paths are
// slash separated asset paths.
func SiblingPath(assetPath, suffix string) string {
	return strings.TrimSuffix(assetPath, path.Ext(assetPath)) + suffix
}

// AlphaMaskPath is where the alpha mask of assetPath is stored.
func AlphaMaskPath(assetPath string) string {
	return SiblingPath(assetPath, alphaMaskSuffix)
}

// OutputPath is where a Store output kind writes its result. Convert kinds
// and OutputNone have no destination of their own and return "".
func OutputPath(assetPath string, k OutputKind) string {
	switch k {
	case OutputStoreCompressed, OutputStoreCompressedNoAlpha, OutputStoreCompressedWithAlphaMask,
		OutputStore16, OutputStore32:
		return SiblingPath(assetPath, assetSuffix)
	case OutputStorePNG:
		return SiblingPath(assetPath, pngSuffix)
	case OutputStoreJPG:
		return SiblingPath(assetPath, jpgSuffix)
	case OutputStorePalettedPNG:
		return SiblingPath(assetPath, palettedSuffix)
	}
	return ""
}

// BuildAlphaMask returns an RGB24 texture of src's size and metadata whose
// colour is the alpha of pix. Masks have no mipmaps.
func BuildAlphaMask(src *Texture, pix []Color) (*Texture, error) {
	mask := NewTexture(src.Width, src.Height, FormatRGB24, false)
	mask.Metadata = src.Metadata
	aPix := make([]Color, len(pix))
	for i, p := range pix {
		aPix[i] = Gray(p.A)
	}
	if err := mask.SetPixels(aPix); err != nil {
		return nil, err
	}
	mask.Apply(true)
	return mask, nil
}

// pendingWrite is one fully encoded result waiting to be handed to the
// AssetWriter. Exactly one of tex and data is set.
type pendingWrite struct {
	path string
	tex  *Texture
	data []byte
}

func (w pendingWrite) commit(aw AssetWriter) error {
	if w.tex != nil {
		if err := aw.CreateOrOverwriteAsset(w.path, w.tex); err != nil {
			return fmt.Errorf("write asset %s: %w", w.path, err)
		}
		return nil
	}
	if err := aw.WriteFile(w.path, w.data); err != nil {
		return fmt.Errorf("write file %s: %w", w.path, err)
	}
	return nil
}
