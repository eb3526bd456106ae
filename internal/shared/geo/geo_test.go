package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Melbourne CBD to Geelong ~ 65 km
	d := HaversineKm(-37.8136, 144.9631, -38.1499, 144.3617)
	if d < 55 || d > 75 {
		t.Fatalf("unexpected distance: %v", d)
	}
	if HaversineKm(-37.8, 144.9, -37.8, 144.9) != 0 {
		t.Fatalf("expected zero distance for identical points")
	}
}

func TestRegionForEmpty(t *testing.T) {
	r := RegionFor(nil)
	if r.Center.Lat != 0 || r.Center.Lng != 0 || r.LatDelta != 1 || r.LngDelta != 1 {
		t.Fatalf("unexpected default region: %+v", r)
	}
}

func TestRegionForTrack(t *testing.T) {
	r := RegionFor([]Coordinate{
		{Lat: -37.80, Lng: 144.90},
		{Lat: -37.90, Lng: 145.00},
		{Lat: -37.85, Lng: 144.95},
	})
	if math.Abs(r.Center.Lat-(-37.85)) > 1e-9 || math.Abs(r.Center.Lng-144.95) > 1e-9 {
		t.Fatalf("unexpected centre: %+v", r.Center)
	}
	if math.Abs(r.LatDelta-0.12) > 1e-9 || math.Abs(r.LngDelta-0.12) > 1e-9 {
		t.Fatalf("unexpected spans: %+v", r)
	}
}
