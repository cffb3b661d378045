package cdbtile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoCellRelativePath(t *testing.T) {
	cases := []struct {
		cell GeoCell
		want string
	}{
		{GeoCell{LatitudeDeg: 32, LongitudeDeg: 130}, "N32/E130"},
		{GeoCell{LatitudeDeg: -1, LongitudeDeg: -5}, "S01/W005"},
		{GeoCell{LatitudeDeg: 0, LongitudeDeg: 0}, "N00/E000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.cell.RelativePath())
	}
}

func TestGeoCellRect(t *testing.T) {
	cell := GeoCell{LatitudeDeg: 32, LongitudeDeg: 130}
	rect := cell.Rect()
	assert.Equal(t, 130.0, rect.WestDeg)
	assert.Equal(t, 32.0, rect.SouthDeg)
	assert.Equal(t, 131.0, rect.EastDeg)
	assert.Equal(t, 33.0, rect.NorthDeg)
}
