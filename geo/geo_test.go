package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointValid(t *testing.T) {
	valid := []Point{
		{0, 0},
		{12.34, 56.78},
		{-90, -180},
		{90, 180},
		{89.9999, -179.9999},
	}
	for _, p := range valid {
		assert.True(t, p.Valid(), "expected %v to be valid", p)
	}

	invalid := []Point{
		{90.0001, 0},
		{-90.0001, 0},
		{0, 180.0001},
		{0, -180.0001},
		{91, 181},
	}
	for _, p := range invalid {
		assert.False(t, p.Valid(), "expected %v to be invalid", p)
	}
}

func TestDistance(t *testing.T) {
	// Same point.
	assert.Zero(t, Distance(Point{12.34, 56.78}, Point{12.34, 56.78}))

	// One degree of latitude is roughly 111km.
	d := Distance(Point{0, 0}, Point{1, 0})
	assert.InDelta(t, 111195, d, 100)

	// Distance is symmetric.
	a := Point{48.8566, 2.3522}
	b := Point{51.5074, -0.1278}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 0.0001)

	// Paris to London is about 344km.
	assert.InDelta(t, 344000, Distance(a, b), 2000)
}
