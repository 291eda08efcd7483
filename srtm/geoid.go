package srtm

import (
	"math"

	"github.com/westphae/geomag/pkg/egm96"
)

// GeoidOffset returns the EGM96 geoid undulation in metres at the centre of
// t. SRTM heights are relative to the geoid, so adding the offset gives
// heights above the WGS84 ellipsoid.
func GeoidOffset(t TileID) (float64, error) {
	c := t.Bound().Center()
	// egm96 only takes longitudes in [0, 360).
	lon := math.Mod(c.Lon()+360, 360)
	loc := egm96.NewLocationGeodetic(c.Lat(), lon, 0)
	hMSL, err := loc.HeightAboveMSL()
	if err != nil {
		return 0, err
	}
	return -hMSL, nil
}
