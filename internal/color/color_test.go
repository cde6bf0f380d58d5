package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBlendSaturates(t *testing.T) {
	add, err := Blend(Add)
	require.NoError(t, err)

	assert.Equal(t, RGB{1, 0, 1}, Fold(add, []RGB{Red, Blue}))

	got := Fold(add, []RGB{{0.6, 0, 0}, {0.6, 0, 0}})
	assert.Equal(t, RGB{1, 0, 0}, got)
}

func TestMaxBlend(t *testing.T) {
	max, err := Blend(Max)
	require.NoError(t, err)
	got := Fold(max, []RGB{{0.2, 0.9, 0}, {0.5, 0.1, 0}})
	assert.Equal(t, RGB{0.5, 0.9, 0}, got)
}

func TestNormalHasNoBlendFunc(t *testing.T) {
	_, err := Blend(Normal)
	assert.Error(t, err)
}

func TestParseBlendMode(t *testing.T) {
	for _, s := range []string{"normal", "add", "max"} {
		m, err := ParseBlendMode(s)
		require.NoError(t, err, s)
		assert.Equal(t, BlendMode(s), m)
	}
	_, err := ParseBlendMode("multiply")
	assert.Error(t, err)
	assert.Equal(t, []BlendMode{Normal, Add, Max}, Modes())
}

var hsbCases = []struct {
	H, S, B float64
	Expect  RGB
}{
	{0, 1, 1, Red},
	{1.0 / 3, 1, 1, Green},
	{2.0 / 3, 1, 1, Blue},
	{1, 1, 1, Red},
	{-1.0 / 3, 1, 1, Blue},
	{0.5, 1, 0.5, RGB{0, 0.5, 0.5}},
	{0.25, 0, 1, White},
	{0.8, 1, 0, Black},
}

func TestHSB(t *testing.T) {
	for _, c := range hsbCases {
		got := HSB(c.H, c.S, c.B)
		assert.InDelta(t, c.Expect.R, got.R, 1e-9, "h=%v", c.H)
		assert.InDelta(t, c.Expect.G, got.G, 1e-9, "h=%v", c.H)
		assert.InDelta(t, c.Expect.B, got.B, 1e-9, "h=%v", c.H)
	}
}

func TestScaleAndNRGBA(t *testing.T) {
	c := Cyan.Scale(0.5)
	assert.Equal(t, RGB{0, 0.5, 0.5}, c)
	n := RGB{2, -1, 0.5}.NRGBA()
	assert.Equal(t, uint8(255), n.R)
	assert.Equal(t, uint8(0), n.G)
	assert.Equal(t, uint8(128), n.B)
	assert.Equal(t, uint8(255), n.A)
}

func TestFromSlice(t *testing.T) {
	c, err := FromSlice([]float64{1, 0.5, 2})
	require.NoError(t, err)
	assert.Equal(t, RGB{1, 0.5, 1}, c)
	_, err = FromSlice([]float64{1})
	assert.Error(t, err)
}
