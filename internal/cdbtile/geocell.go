package cdbtile

import (
	"fmt"

	"github.com/ecopia-map/cdb2tiles/internal/geom"
)

// GeoCell identifies a 1x1 degree WGS-84 cell, the top of the CDB tile
// hierarchy. Latitude/longitude follow CDB convention: the cell spans
// [LatitudeDeg, LatitudeDeg+1) x [LongitudeDeg, LongitudeDeg+1).
type GeoCell struct {
	LatitudeDeg  int
	LongitudeDeg int
}

// RelativePath builds the canonical "<hemisphere><deg>/<hemisphere><deg>"
// directory prefix, e.g. "N32/E130" or "S01/W005".
func (g GeoCell) RelativePath() string {
	latHemi, latMag := "N", g.LatitudeDeg
	if g.LatitudeDeg < 0 {
		latHemi, latMag = "S", -g.LatitudeDeg
	}
	lonHemi, lonMag := "E", g.LongitudeDeg
	if g.LongitudeDeg < 0 {
		lonHemi, lonMag = "W", -g.LongitudeDeg
	}
	return fmt.Sprintf("%s%02d/%s%03d", latHemi, latMag, lonHemi, lonMag)
}

// Rect returns the geocell's WGS-84 rectangle.
func (g GeoCell) Rect() geom.Rect {
	return geom.Rect{
		WestDeg:  float64(g.LongitudeDeg),
		SouthDeg: float64(g.LatitudeDeg),
		EastDeg:  float64(g.LongitudeDeg) + 1,
		NorthDeg: float64(g.LatitudeDeg) + 1,
	}
}

func (g GeoCell) String() string {
	return fmt.Sprintf("(%d,%d)", g.LatitudeDeg, g.LongitudeDeg)
}
