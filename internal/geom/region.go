// Package geom holds the small set of geometric primitives the conversion
// core needs: WGS-84 rectangles and 3D vectors. Shaped after the
// geometry.BoundingBox/Coordinate types the teacher's octree and coordinate
// converter packages pass around (internal/octree/tree_abstractions.go,
// internal/converters/coordinate_converter.go), reconstructed here for the
// CDB/WGS-84-only domain since the teacher's own geometry package was never
// part of the retrieved reference pack.
package geom

import "math"

// Rect is a WGS-84 longitude/latitude rectangle in degrees.
type Rect struct {
	WestDeg, SouthDeg, EastDeg, NorthDeg float64
}

// Region is a Rect extruded between a minimum and maximum elevation, the
// bounding volume carried by every CDBTile.
type Region struct {
	Rect
	MinHeight, MaxHeight float64
}

// Contains reports whether r fully contains o (used by verify to check
// tileset nesting, and by TI for child-in-parent sanity checks).
func (r Rect) Contains(o Rect) bool {
	return o.WestDeg >= r.WestDeg && o.EastDeg <= r.EastDeg &&
		o.SouthDeg >= r.SouthDeg && o.NorthDeg <= r.NorthDeg
}

// Union returns the smallest Rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		WestDeg:  math.Min(r.WestDeg, o.WestDeg),
		SouthDeg: math.Min(r.SouthDeg, o.SouthDeg),
		EastDeg:  math.Max(r.EastDeg, o.EastDeg),
		NorthDeg: math.Max(r.NorthDeg, o.NorthDeg),
	}
}

// Union extends the height range along with the rectangle.
func (r Region) Union(o Region) Region {
	return Region{
		Rect:      r.Rect.Union(o.Rect),
		MinHeight: math.Min(r.MinHeight, o.MinHeight),
		MaxHeight: math.Max(r.MaxHeight, o.MaxHeight),
	}
}

// Vector3 is a plain cartesian vector, used for per-vertex normals.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

func (v Vector3) Normalized() Vector3 {
	l := math.Sqrt(v.LengthSquared())
	if l == 0 {
		return v
	}
	return Vector3{v.X / l, v.Y / l, v.Z / l}
}

// WGS84GeodeticNormal returns the outward surface normal of the WGS-84
// ellipsoid at the given geodetic longitude/latitude, in degrees. Used as
// the fallback for degenerate per-vertex normals (see internal/lod).
func WGS84GeodeticNormal(lonDeg, latDeg float64) Vector3 {
	lon := lonDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	return Vector3{
		X: math.Cos(lat) * math.Cos(lon),
		Y: math.Cos(lat) * math.Sin(lon),
		Z: math.Sin(lat),
	}.Normalized()
}
