package color

import (
	"fmt"
	"math"
	"sort"
)

// BlendMode selects how simultaneously active programs are combined.
type BlendMode string

const (
	// Normal shows only the most recently activated program (last wins).
	// It is resolved structurally by the compositor and has no BlendFunc.
	Normal BlendMode = "normal"
	// Add sums channels, saturating at 1.
	Add BlendMode = "add"
	// Max keeps the brightest value per channel.
	Max BlendMode = "max"
)

// BlendFunc combines an accumulated color with the next layer.
type BlendFunc func(acc, layer RGB) RGB

var blendFuncs = map[BlendMode]BlendFunc{
	Add: func(a, b RGB) RGB {
		return RGB{
			R: math.Min(a.R+b.R, 1),
			G: math.Min(a.G+b.G, 1),
			B: math.Min(a.B+b.B, 1),
		}
	},
	Max: func(a, b RGB) RGB {
		return RGB{R: math.Max(a.R, b.R), G: math.Max(a.G, b.G), B: math.Max(a.B, b.B)}
	},
}

// Blend returns the blend function registered for mode.
// Normal has no function; callers handle it before asking.
func Blend(mode BlendMode) (BlendFunc, error) {
	f, ok := blendFuncs[mode]
	if !ok {
		return nil, fmt.Errorf("no blend function for mode %q", mode)
	}
	return f, nil
}

// ParseBlendMode validates a mode name coming from configuration.
func ParseBlendMode(s string) (BlendMode, error) {
	m := BlendMode(s)
	if m == Normal {
		return m, nil
	}
	if _, ok := blendFuncs[m]; !ok {
		return "", fmt.Errorf("unknown blend mode %q (want one of %v)", s, Modes())
	}
	return m, nil
}

// Modes lists every accepted blend mode.
func Modes() []BlendMode {
	var table []BlendMode
	for m := range blendFuncs {
		table = append(table, m)
	}
	sort.Slice(table, func(i, j int) bool { return table[i] < table[j] })
	return append([]BlendMode{Normal}, table...)
}

// Fold blends layers bottom-up starting from black.
func Fold(f BlendFunc, layers []RGB) RGB {
	acc := Black
	for _, l := range layers {
		acc = f(acc, l)
	}
	return acc
}
