package app

import (
	"fmt"
	"math/rand/v2"
)

// ColorSource hands out display colors for new participants.
type ColorSource interface {
	Next() string
}

// HSLColors picks a uniform hue at fixed saturation and lightness.
type HSLColors struct {
	rnd        *rand.Rand
	Saturation int
	Lightness  int
}

func NewHSLColors(seed uint64) *HSLColors {
	return &HSLColors{
		rnd:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Saturation: 70,
		Lightness:  50,
	}
}

func (c *HSLColors) Next() string {
	return fmt.Sprintf("hsl(%.1f, %d%%, %d%%)", c.rnd.Float64()*360, c.Saturation, c.Lightness)
}
