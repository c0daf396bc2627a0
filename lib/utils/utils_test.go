package utils

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColour(t *testing.T) {
	assert.True(t, ColourValidate("#00ffffff"))
	assert.False(t, ColourValidate("#fff"))
	assert.Equal(t, color.RGBA{R: 0, G: 0xff, B: 0xff, A: 0xff}, ColourParse("#00ffffff"))
}

func TestDeltaTimer(t *testing.T) {
	var d DeltaTimer
	assert.Zero(t, d.Next())
	d.Set(time.Now().Add(-time.Second))
	assert.GreaterOrEqual(t, d.Next(), time.Second)
}

func TestColourFloats(t *testing.T) {
	r, g, b, a := ColourFloats(color.RGBA{R: 255, G: 0, B: 51, A: 255})
	assert.Equal(t, []float32{1, 0, 0.2, 1}, []float32{r, g, b, a})
}
