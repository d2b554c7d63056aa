package texmod

// EffectKind selects the alpha pre-processing pass.
type EffectKind uint8

const (
	EffectNone EffectKind = iota
	EffectPremultipliedAlpha
	EffectAlphaBleed
)

func (k EffectKind) String() string {
	switch k {
	case EffectPremultipliedAlpha:
		return "PremultipliedAlpha"
	case EffectAlphaBleed:
		return "AlphaBleed"
	default:
		return "None"
	}
}

// ModifierKind selects the colour depth reduction pass.
type ModifierKind uint8

const (
	ModifierNone ModifierKind = iota
	ModifierFloydSteinberg
	ModifierReduced16Bits
)

func (k ModifierKind) String() string {
	switch k {
	case ModifierFloydSteinberg:
		return "FloydSteinberg"
	case ModifierReduced16Bits:
		return "Reduced16Bits"
	default:
		return "None"
	}
}

// OutputKind selects the final encoding and destination.
//
// Convert kinds rewrite the source texture in place; Store kinds build a new
// texture and persist it next to the source asset.
type OutputKind uint8

const (
	OutputNone OutputKind = iota
	OutputConvert16
	OutputConvertCompressed
	OutputConvertCompressedNoAlpha
	OutputConvertCompressedWithAlphaMask
	OutputStoreCompressed
	OutputStoreCompressedNoAlpha
	OutputStoreCompressedWithAlphaMask
	OutputStore16
	OutputStore32
	OutputStorePNG
	OutputStoreJPG
	OutputStorePalettedPNG
)

var outputNames = [...]string{
	OutputNone:                           "None",
	OutputConvert16:                      "Convert16",
	OutputConvertCompressed:              "ConvertCompressed",
	OutputConvertCompressedNoAlpha:       "ConvertCompressedNoAlpha",
	OutputConvertCompressedWithAlphaMask: "ConvertCompressedWithAlphaMask",
	OutputStoreCompressed:                "StoreCompressed",
	OutputStoreCompressedNoAlpha:         "StoreCompressedNoAlpha",
	OutputStoreCompressedWithAlphaMask:   "StoreCompressedWithAlphaMask",
	OutputStore16:                        "Store16",
	OutputStore32:                        "Store32",
	OutputStorePNG:                       "StorePNG",
	OutputStoreJPG:                       "StoreJPG",
	OutputStorePalettedPNG:               "StorePalettedPNG",
}

func (k OutputKind) String() string {
	if int(k) < len(outputNames) {
		return outputNames[k]
	}
	return "None"
}

// Compressed reports whether the output goes through a platform compressed
// format, i.e. whether its result depends on the injected FormatSpec.
func (k OutputKind) Compressed() bool {
	switch k {
	case OutputConvertCompressed, OutputConvertCompressedNoAlpha, OutputConvertCompressedWithAlphaMask,
		OutputStoreCompressed, OutputStoreCompressedNoAlpha, OutputStoreCompressedWithAlphaMask:
		return true
	}
	return false
}

// AlphaMask reports whether the output splits alpha into a separate image.
func (k OutputKind) AlphaMask() bool {
	return k == OutputConvertCompressedWithAlphaMask || k == OutputStoreCompressedWithAlphaMask
}

// Selection is the per-texture choice for each stage. The zero value selects
// nothing and makes processing a no-op.
type Selection struct {
	Effect   EffectKind
	Modifier ModifierKind
	Output   OutputKind
}

func (s Selection) IsZero() bool {
	return s.Effect == EffectNone && s.Modifier == ModifierNone && s.Output == OutputNone
}

func (s Selection) String() string {
	return s.Effect.String() + "/" + s.Modifier.String() + "/" + s.Output.String()
}
