package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectContains(t *testing.T) {
	outer := Rect{WestDeg: 0, SouthDeg: 0, EastDeg: 10, NorthDeg: 10}
	inner := Rect{WestDeg: 1, SouthDeg: 1, EastDeg: 9, NorthDeg: 9}
	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))

	straddling := Rect{WestDeg: -1, SouthDeg: 1, EastDeg: 5, NorthDeg: 5}
	assert.False(t, outer.Contains(straddling))
}

func TestRectUnion(t *testing.T) {
	a := Rect{WestDeg: 0, SouthDeg: 0, EastDeg: 5, NorthDeg: 5}
	b := Rect{WestDeg: 3, SouthDeg: -2, EastDeg: 8, NorthDeg: 4}
	got := a.Union(b)
	assert.Equal(t, Rect{WestDeg: 0, SouthDeg: -2, EastDeg: 8, NorthDeg: 5}, got)
}

func TestRegionUnionExtendsHeightRange(t *testing.T) {
	a := Region{Rect: Rect{WestDeg: 0, SouthDeg: 0, EastDeg: 1, NorthDeg: 1}, MinHeight: 10, MaxHeight: 20}
	b := Region{Rect: Rect{WestDeg: 0, SouthDeg: 0, EastDeg: 1, NorthDeg: 1}, MinHeight: 5, MaxHeight: 25}
	got := a.Union(b)
	assert.Equal(t, 5.0, got.MinHeight)
	assert.Equal(t, 25.0, got.MaxHeight)
}

func TestVector3AddSubCross(t *testing.T) {
	a := Vector3{X: 1, Y: 0, Z: 0}
	b := Vector3{X: 0, Y: 1, Z: 0}
	assert.Equal(t, Vector3{X: 1, Y: 1, Z: 0}, a.Add(b))
	assert.Equal(t, Vector3{X: 1, Y: -1, Z: 0}, a.Sub(b))
	assert.Equal(t, Vector3{X: 0, Y: 0, Z: 1}, a.Cross(b))
}

func TestVector3Normalized(t *testing.T) {
	v := Vector3{X: 3, Y: 4, Z: 0}
	n := v.Normalized()
	assert.InDelta(t, 1.0, math.Sqrt(n.LengthSquared()), 1e-9)
	assert.InDelta(t, 0.6, n.X, 1e-9)
	assert.InDelta(t, 0.8, n.Y, 1e-9)
}

func TestVector3NormalizedZeroVectorIsNoop(t *testing.T) {
	v := Vector3{}
	assert.Equal(t, v, v.Normalized())
}

func TestWGS84GeodeticNormalAtEquatorPrimeMeridian(t *testing.T) {
	n := WGS84GeodeticNormal(0, 0)
	assert.InDelta(t, 1.0, n.X, 1e-9)
	assert.InDelta(t, 0.0, n.Y, 1e-9)
	assert.InDelta(t, 0.0, n.Z, 1e-9)
}

func TestWGS84GeodeticNormalAtNorthPole(t *testing.T) {
	n := WGS84GeodeticNormal(0, 90)
	assert.InDelta(t, 0.0, n.X, 1e-9)
	assert.InDelta(t, 0.0, n.Y, 1e-9)
	assert.InDelta(t, 1.0, n.Z, 1e-9)
}
