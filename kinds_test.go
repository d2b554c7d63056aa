package texmod

import "testing"

func TestSelectionZero(t *testing.T) {
	var s Selection
	if !s.IsZero() {
		t.Error("zero Selection not IsZero")
	}
	if s.String() != "None/None/None" {
		t.Errorf("String() = %q", s.String())
	}
	s.Modifier = ModifierReduced16Bits
	if s.IsZero() {
		t.Error("modifier-only Selection reported zero")
	}
}

func TestOutputKindClasses(t *testing.T) {
	for k := OutputNone; k <= OutputStorePalettedPNG; k++ {
		if k.AlphaMask() && !k.Compressed() {
			t.Errorf("%s: alpha mask output must be compressed", k)
		}
		if k.String() == "" {
			t.Errorf("OutputKind(%d) has no name", k)
		}
	}
	if OutputStore16.Compressed() || OutputStorePNG.Compressed() {
		t.Error("uncompressed outputs reported as compressed")
	}
}
