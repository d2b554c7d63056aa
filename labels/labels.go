// Package labels maps the asset labels used to tag textures onto a typed
// texmod.Selection and edits label lists the way the label menu does.
package labels

import (
	"slices"

	"github.com/setanarut/texmod"
)

// Category groups labels that exclude each other.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryEffect
	CategoryModifier
	CategoryOutput
)

func (c Category) String() string {
	switch c {
	case CategoryEffect:
		return "effect"
	case CategoryModifier:
		return "modifier"
	case CategoryOutput:
		return "output"
	default:
		return "none"
	}
}

// ParseCategory accepts the names returned by Category.String.
func ParseCategory(s string) (Category, bool) {
	for _, c := range []Category{CategoryEffect, CategoryModifier, CategoryOutput} {
		if c.String() == s {
			return c, true
		}
	}
	return CategoryNone, false
}

type entry struct {
	category Category
	effect   texmod.EffectKind
	modifier texmod.ModifierKind
	output   texmod.OutputKind
}

// Label names are the ones stored on existing assets and must not change.
var table = map[string]entry{
	"PremultipliedAlpha": {category: CategoryEffect, effect: texmod.EffectPremultipliedAlpha},
	"AlphaBleed":         {category: CategoryEffect, effect: texmod.EffectAlphaBleed},
	"FloydSteinberg":     {category: CategoryModifier, modifier: texmod.ModifierFloydSteinberg},
	"Reduced16bits":      {category: CategoryModifier, modifier: texmod.ModifierReduced16Bits},
	"C16bits":            {category: CategoryOutput, output: texmod.OutputConvert16},
	"CCompressed":        {category: CategoryOutput, output: texmod.OutputConvertCompressed},
	"CCompressedNA":      {category: CategoryOutput, output: texmod.OutputConvertCompressedNoAlpha},
	"CCompressedWA":      {category: CategoryOutput, output: texmod.OutputConvertCompressedWithAlphaMask},
	"T32bits":            {category: CategoryOutput, output: texmod.OutputStore32},
	"T16bits":            {category: CategoryOutput, output: texmod.OutputStore16},
	"TCompressed":        {category: CategoryOutput, output: texmod.OutputStoreCompressed},
	"TCompressedNA":      {category: CategoryOutput, output: texmod.OutputStoreCompressedNoAlpha},
	"TCompressedWA":      {category: CategoryOutput, output: texmod.OutputStoreCompressedWithAlphaMask},
	"TPNG":               {category: CategoryOutput, output: texmod.OutputStorePNG},
	"TJPG":               {category: CategoryOutput, output: texmod.OutputStoreJPG},
	"TPNG8":              {category: CategoryOutput, output: texmod.OutputStorePalettedPNG},
}

// Known reports whether name is a pipeline label.
func Known(name string) bool {
	_, ok := table[name]
	return ok
}

// CategoryOf returns the category of a label, or CategoryNone.
func CategoryOf(name string) Category {
	return table[name].category
}

// Names returns every label of a category, sorted.
func Names(c Category) []string {
	var out []string
	for n, e := range table {
		if e.category == c {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}

// Resolve scans labels in order. Unknown labels are ignored and the last
// label of each category wins.
func Resolve(names []string) texmod.Selection {
	var sel texmod.Selection
	for _, n := range names {
		e, ok := table[n]
		if !ok {
			continue
		}
		switch e.category {
		case CategoryEffect:
			sel.Effect = e.effect
		case CategoryModifier:
			sel.Modifier = e.modifier
		case CategoryOutput:
			sel.Output = e.output
		}
	}
	return sel
}

// Clear drops every label of category c. Unrelated labels are kept.
func Clear(names []string, c Category) []string {
	return slices.DeleteFunc(slices.Clone(names), func(n string) bool {
		return CategoryOf(n) == c
	})
}

// Set replaces the labels of name's category with name. Unknown names are
// appended without touching other labels.
func Set(names []string, name string) []string {
	var out []string
	if c := CategoryOf(name); c != CategoryNone {
		out = Clear(names, c)
	} else {
		out = slices.Clone(names)
	}
	if !slices.Contains(out, name) {
		out = append(out, name)
	}
	return out
}

// Compressed reports whether the labels select an output that depends on
// the platform's compressed formats.
func Compressed(names []string) bool {
	return Resolve(names).Output.Compressed()
}
