package assetdb

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/setanarut/texmod"
	"github.com/xfmoulet/qoi"
)

var assetMagic = [4]byte{'T', 'X', 'M', 'A'}

const assetVersion = 1

// HeaderSize is the size in bytes of the fixed .asset header.
const HeaderSize = 40

const flagMipmaps = 1 << 0

// GUID identifies an asset across overwrites.
type GUID [16]byte

// NewGUID returns a random version 4 GUID.
func NewGUID() (GUID, error) {
	var g GUID
	if _, err := rand.Read(g[:]); err != nil {
		return GUID{}, fmt.Errorf("assetdb: guid: %w", err)
	}
	g[6] = g[6]&0x0f | 0x40
	g[8] = g[8]&0x3f | 0x80
	return g, nil
}

func (g GUID) IsZero() bool { return g == GUID{} }

func (g GUID) String() string { return hex.EncodeToString(g[:]) }

// Header is the fixed part of an .asset file.
type Header struct {
	GUID    GUID
	Format  texmod.PixelFormat
	Width   uint32
	Height  uint32
	Mipmaps bool
	// Number of stored levels, level 0 included.
	Levels uint8
	texmod.Metadata
}

func (h Header) String() string {
	return fmt.Sprintf("%s %s %dx%d levels=%d wrap=%d filter=%d bias=%g aniso=%d",
		h.GUID, h.Format, h.Width, h.Height, h.Levels,
		h.WrapMode, h.FilterMode, h.MipMapBias, h.AnisoLevel)
}

func (h Header) validate() error {
	if h.Width == 0 || h.Height == 0 {
		return errors.New("assetdb: invalid header: zero dimension")
	}
	if !h.Format.Valid() {
		return fmt.Errorf("assetdb: invalid header: %w: %s", texmod.ErrUnsupportedFormat, h.Format)
	}
	if h.Levels == 0 {
		return errors.New("assetdb: invalid header: no levels")
	}
	if h.AnisoLevel < 0 || h.AnisoLevel > math.MaxUint8 {
		return fmt.Errorf("assetdb: invalid header: aniso level %d", h.AnisoLevel)
	}
	return nil
}

// MarshalHeader returns the HeaderSize byte encoding of h.
func MarshalHeader(h Header) ([HeaderSize]byte, error) {
	if err := h.validate(); err != nil {
		return [HeaderSize]byte{}, err
	}
	var out [HeaderSize]byte
	copy(out[0:4], assetMagic[:])
	out[4] = assetVersion
	out[5] = uint8(h.Format)
	if h.Mipmaps {
		out[6] = flagMipmaps
	}
	out[7] = h.Levels
	out[8] = uint8(h.WrapMode)
	out[9] = uint8(h.FilterMode)
	out[10] = uint8(h.AnisoLevel)
	// out[11] reserved
	binary.LittleEndian.PutUint32(out[12:16], h.Width)
	binary.LittleEndian.PutUint32(out[16:20], h.Height)
	binary.LittleEndian.PutUint32(out[20:24], math.Float32bits(h.MipMapBias))
	copy(out[24:40], h.GUID[:])
	return out, nil
}

// ParseHeader parses the header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("assetdb: header: unexpected EOF: want %d bytes, got %d", HeaderSize, len(data))
	}
	if !bytes.Equal(data[0:4], assetMagic[:]) {
		return Header{}, errors.New("assetdb: invalid magic")
	}
	if data[4] != assetVersion {
		return Header{}, fmt.Errorf("assetdb: unsupported version %d", data[4])
	}
	h := Header{
		Format:  texmod.PixelFormat(data[5]),
		Mipmaps: data[6]&flagMipmaps != 0,
		Levels:  data[7],
		Width:   binary.LittleEndian.Uint32(data[12:16]),
		Height:  binary.LittleEndian.Uint32(data[16:20]),
		Metadata: texmod.Metadata{
			WrapMode:   texmod.WrapMode(data[8]),
			FilterMode: texmod.FilterMode(data[9]),
			AnisoLevel: int(data[10]),
			MipMapBias: math.Float32frombits(binary.LittleEndian.Uint32(data[20:24])),
		},
	}
	copy(h.GUID[:], data[24:40])
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Marshal encodes tex with the given identity. The body holds, per mip
// level, a colour and an alpha QOI image, each prefixed by its length, and
// is compressed as a single zstd frame. qoi.Encode premultiplies, so both
// images are written opaque.
func Marshal(guid GUID, tex *texmod.Texture) ([]byte, error) {
	if err := tex.Validate(); err != nil {
		return nil, err
	}
	levels := tex.MipCount()
	if levels > math.MaxUint8 {
		return nil, fmt.Errorf("assetdb: %d mip levels", levels)
	}
	hdr, err := MarshalHeader(Header{
		GUID:     guid,
		Format:   tex.Format,
		Width:    uint32(tex.Width),
		Height:   uint32(tex.Height),
		Mipmaps:  tex.Mipmaps,
		Levels:   uint8(levels),
		Metadata: tex.Metadata,
	})
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	for i := range levels {
		colour, alpha := splitLevel(tex.Level(i))
		for _, img := range []*image.NRGBA{colour, alpha} {
			if err := writeQOI(&body, img); err != nil {
				return nil, fmt.Errorf("assetdb: level %d: %w", i, err)
			}
		}
	}

	out := make([]byte, 0, HeaderSize+body.Len()/2)
	out = append(out, hdr[:]...)
	return compressZstdInto(out, body.Bytes()), nil
}

// Unmarshal decodes an .asset file into its header and texture.
func Unmarshal(data []byte) (Header, *texmod.Texture, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return Header{}, nil, err
	}
	body, err := decompressZstd(data[HeaderSize:])
	if err != nil {
		return Header{}, nil, fmt.Errorf("assetdb: body: %w", err)
	}

	levels := make([]*texmod.PixelBuffer, 0, h.Levels)
	for i := range int(h.Levels) {
		var colour, alpha *image.NRGBA
		if colour, body, err = readQOI(body); err != nil {
			return Header{}, nil, fmt.Errorf("assetdb: level %d colour: %w", i, err)
		}
		if alpha, body, err = readQOI(body); err != nil {
			return Header{}, nil, fmt.Errorf("assetdb: level %d alpha: %w", i, err)
		}
		buf, err := joinLevel(colour, alpha)
		if err != nil {
			return Header{}, nil, fmt.Errorf("assetdb: level %d: %w", i, err)
		}
		levels = append(levels, buf)
	}
	if len(body) != 0 {
		return Header{}, nil, errors.New("assetdb: trailing data after last level")
	}

	tex := texmod.NewTexture(int(h.Width), int(h.Height), h.Format, h.Mipmaps)
	tex.Metadata = h.Metadata
	if err := tex.SetLevels(levels); err != nil {
		return Header{}, nil, fmt.Errorf("assetdb: %w", err)
	}
	return h, tex, nil
}

// splitLevel returns the colour with alpha forced opaque, and the alpha as
// an opaque gray image.
func splitLevel(b *texmod.PixelBuffer) (colour, alpha *image.NRGBA) {
	colour = b.ToNRGBA()
	alpha = image.NewNRGBA(colour.Rect)
	for i := 0; i < len(colour.Pix); i += 4 {
		a := colour.Pix[i+3]
		alpha.Pix[i], alpha.Pix[i+1], alpha.Pix[i+2], alpha.Pix[i+3] = a, a, a, 0xff
		colour.Pix[i+3] = 0xff
	}
	return colour, alpha
}

func joinLevel(colour, alpha *image.NRGBA) (*texmod.PixelBuffer, error) {
	if colour.Rect != alpha.Rect {
		return nil, fmt.Errorf("alpha plane %v does not match colour %v", alpha.Rect, colour.Rect)
	}
	for i := 0; i < len(colour.Pix); i += 4 {
		colour.Pix[i+3] = alpha.Pix[i]
	}
	return texmod.BufferFromImage(colour), nil
}

func writeQOI(w *bytes.Buffer, img *image.NRGBA) error {
	var enc bytes.Buffer
	if err := qoi.Encode(&enc, img); err != nil {
		return err
	}
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(enc.Len()))
	w.Write(n[:])
	w.Write(enc.Bytes())
	return nil
}

func readQOI(body []byte) (*image.NRGBA, []byte, error) {
	if len(body) < 4 {
		return nil, nil, errors.New("unexpected EOF")
	}
	n := binary.LittleEndian.Uint32(body)
	body = body[4:]
	if uint64(n) > uint64(len(body)) {
		return nil, nil, fmt.Errorf("unexpected EOF: want %d bytes, got %d", n, len(body))
	}
	img, err := qoi.Decode(bytes.NewReader(body[:n]))
	if err != nil {
		return nil, nil, err
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected qoi image %T", img)
	}
	return nrgba, body[n:], nil
}

// ============ ZSTD ============

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdEncPool = sync.Pool{
	New: func() any {
		return mustNewZstdEncoder()
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		return mustNewZstdDecoder()
	},
}

func compressZstdInto(dst []byte, data []byte) []byte {
	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(data, dst)
	zstdEncPool.Put(enc)
	return out
}

func decompressZstd(data []byte) ([]byte, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(data, nil)
	zstdDecPool.Put(dec)
	return out, err
}
