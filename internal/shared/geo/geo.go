package geo

import (
	"github.com/golang/geo/s2"
)

const earthRadiusKm = 6371.0088

// HaversineKm is the great-circle distance between two coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lng1)
	b := s2.LatLngFromDegrees(lat2, lng2)
	return a.Distance(b).Radians() * earthRadiusKm
}

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Region is a map viewport: a centre plus latitude/longitude spans in degrees.
type Region struct {
	Center   Coordinate `json:"center"`
	LatDelta float64    `json:"lat_delta"`
	LngDelta float64    `json:"lng_delta"`
}

// regionMargin widens the fitted box so endpoints are not drawn on the edge.
const regionMargin = 1.2

// RegionFor fits a region around coords. Without coordinates it returns a
// one-degree region centred on (0, 0).
func RegionFor(coords []Coordinate) Region {
	if len(coords) == 0 {
		return Region{LatDelta: 1, LngDelta: 1}
	}

	rect := s2.EmptyRect()
	for _, c := range coords {
		rect = rect.AddPoint(s2.LatLngFromDegrees(c.Lat, c.Lng))
	}

	center := rect.Center()
	size := rect.Size()
	return Region{
		Center:   Coordinate{Lat: center.Lat.Degrees(), Lng: center.Lng.Degrees()},
		LatDelta: size.Lat.Degrees() * regionMargin,
		LngDelta: size.Lng.Degrees() * regionMargin,
	}
}
