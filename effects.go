package texmod

// PremultipliedAlpha multiplies colour by alpha in place. It is not
// idempotent: every extra application darkens translucent pixels again.
func PremultipliedAlpha(b *PixelBuffer) {
	for i := range b.Pix {
		p := &b.Pix[i]
		p.R *= p.A
		p.G *= p.A
		p.B *= p.A
	}
}

// ApplyEffect runs the selected effect. EffectNone leaves b untouched.
func ApplyEffect(b *PixelBuffer, k EffectKind) {
	switch k {
	case EffectPremultipliedAlpha:
		PremultipliedAlpha(b)
	case EffectAlphaBleed:
		AlphaBleed(b)
	}
}
