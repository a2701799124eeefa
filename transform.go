package comet

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// matrix computes the affine matrix that maps a size×size texture onto the
// marker described by t, drawn at the given diameter and uniform emphasis.
// Returns [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Translate(-size/2, -size/2) -> Scale -> Rotate -> Translate(X, Y)
func (t Transform) matrix(size, diameter, emphasis float64) [6]float64 {
	k := diameter / size * emphasis
	sx := k * t.ScaleAlong
	sy := k * t.ScalePerp

	sin, cos := math.Sincos(t.Rotation)

	// After Scale * Translate(-pivot):
	//   a=sx, b=0, c=0, d=sy, tx=-half*sx, ty=-half*sy
	half := size / 2
	preTx := -half * sx
	preTy := -half * sy

	// After Rotate:
	ra := cos * sx
	rb := sin * sx
	rc := -sin * sy
	rd := cos * sy
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	// After Translate(X, Y):
	return [6]float64{ra, rb, rc, rd, rtx + t.X, rty + t.Y}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// geoM converts an affine matrix to an ebiten.GeoM.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func geoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}
