package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ef4444")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}, c)

	c, err = ParseHex("22c55e40")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0x40}, c)

	_, err = ParseHex("#abc")
	assert.Error(t, err)
	_, err = ParseHex("#zzzzzz")
	assert.Error(t, err)
}

func TestHexRoundTrip(t *testing.T) {
	c := WithAlpha(Orange, 0.25)
	back, err := ParseHex(Hex(c))
	require.NoError(t, err)
	assert.Equal(t, c, back)
	assert.Equal(t, uint8(64), c.A)
}
