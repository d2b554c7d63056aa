package texmod

import (
	"fmt"
	"strings"
)

// PixelFormat is the storage format of a texture.
type PixelFormat uint8

const (
	FormatRGBA32 PixelFormat = iota
	FormatRGB24
	FormatRGBA4444
	FormatDXT1
	FormatDXT5
	FormatETCRGB4
	FormatPVRTCRGB4
	FormatPVRTCRGBA4
)

type formatInfo struct {
	name string
	// Storage precision per channel (R, G, B, A). Zero alpha bits means
	// the format cannot carry alpha and it reads back as 1.
	bits  [4]uint8
	block bool
}

var formatTable = [...]formatInfo{
	FormatRGBA32:     {"RGBA32", [4]uint8{8, 8, 8, 8}, false},
	FormatRGB24:      {"RGB24", [4]uint8{8, 8, 8, 0}, false},
	FormatRGBA4444:   {"RGBA4444", [4]uint8{4, 4, 4, 4}, false},
	FormatDXT1:       {"DXT1", [4]uint8{5, 6, 5, 0}, true},
	FormatDXT5:       {"DXT5", [4]uint8{5, 6, 5, 8}, true},
	FormatETCRGB4:    {"ETC_RGB4", [4]uint8{5, 5, 5, 0}, true},
	FormatPVRTCRGB4:  {"PVRTC_RGB4", [4]uint8{5, 5, 5, 0}, true},
	FormatPVRTCRGBA4: {"PVRTC_RGBA4", [4]uint8{4, 4, 4, 3}, true},
}

func (f PixelFormat) Valid() bool {
	return int(f) < len(formatTable)
}

func (f PixelFormat) String() string {
	if !f.Valid() {
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
	return formatTable[f].name
}

// HasAlpha reports whether the format stores an alpha channel.
func (f PixelFormat) HasAlpha() bool {
	return f.Valid() && formatTable[f].bits[3] > 0
}

// Block reports whether the format is block compressed.
func (f PixelFormat) Block() bool {
	return f.Valid() && formatTable[f].block
}

// ChannelBits returns the storage precision of R, G, B and A.
func (f PixelFormat) ChannelBits() [4]uint8 {
	if !f.Valid() {
		return [4]uint8{}
	}
	return formatTable[f].bits
}

// ParsePixelFormat accepts the names returned by PixelFormat.String,
// case-insensitively.
func ParsePixelFormat(s string) (PixelFormat, error) {
	for i, fi := range formatTable {
		if strings.EqualFold(fi.name, s) {
			return PixelFormat(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatSpec is the pair of compressed formats chosen for the deployment
// target: Opaque for outputs that drop alpha, WithAlpha for outputs that
// keep it. The pipeline treats it as an opaque parameter.
type FormatSpec struct {
	Opaque    PixelFormat
	WithAlpha PixelFormat
}

func (s FormatSpec) String() string {
	return s.Opaque.String() + "/" + s.WithAlpha.String()
}

// Platform is a deployment target known to FormatSpecFor.
type Platform uint8

const (
	PlatformStandalone Platform = iota
	PlatformAndroid
	PlatformIOS
)

func (p Platform) String() string {
	switch p {
	case PlatformAndroid:
		return "android"
	case PlatformIOS:
		return "ios"
	default:
		return "standalone"
	}
}

func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(s) {
	case "", "standalone", "desktop", "pc":
		return PlatformStandalone, nil
	case "android":
		return PlatformAndroid, nil
	case "ios", "iphone":
		return PlatformIOS, nil
	}
	return 0, fmt.Errorf("texmod: unknown platform %q", s)
}

// FormatSpecFor returns the compressed formats used for a platform.
// ETC1 has no alpha variant, so Android uses ETC_RGB4 for both.
func FormatSpecFor(p Platform) FormatSpec {
	switch p {
	case PlatformAndroid:
		return FormatSpec{Opaque: FormatETCRGB4, WithAlpha: FormatETCRGB4}
	case PlatformIOS:
		return FormatSpec{Opaque: FormatPVRTCRGB4, WithAlpha: FormatPVRTCRGBA4}
	default:
		return FormatSpec{Opaque: FormatDXT1, WithAlpha: FormatDXT5}
	}
}

// CompressionQuality is forwarded to the encoder service.
type CompressionQuality uint8

const (
	QualityFast CompressionQuality = iota
	QualityNormal
	QualityBest
)

func (q CompressionQuality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityNormal:
		return "normal"
	default:
		return "best"
	}
}

func ParseCompressionQuality(s string) (CompressionQuality, error) {
	for _, q := range []CompressionQuality{QualityFast, QualityNormal, QualityBest} {
		if strings.EqualFold(q.String(), s) {
			return q, nil
		}
	}
	if s == "" {
		return QualityBest, nil
	}
	return 0, fmt.Errorf("texmod: unknown compression quality %q", s)
}
