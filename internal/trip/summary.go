package trip

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tracker-parent/internal/shared/geo"
	"tracker-parent/internal/shared/timeutil"
)

func Summarize(index int, t Track) Summary {
	s := Summary{Index: index, Points: len(t)}
	if len(t) == 0 {
		return s
	}
	s.Start, s.End = t.First().OccurredAt, t.Last().OccurredAt
	if !s.Start.IsZero() && !s.End.IsZero() && s.End.After(s.Start) {
		s.Duration = s.End.Sub(s.Start)
	}
	for i := 1; i < len(t); i++ {
		s.DistanceM += geo.HaversineKm(t[i-1].Latitude, t[i-1].Longitude, t[i].Latitude, t[i].Longitude) * 1000
	}
	if hours := s.Duration.Hours(); hours > 0 {
		s.AvgSpeedKmh = s.DistanceM / 1000 / hours
	}
	return s
}

// Region returns the viewport that frames the whole track.
func Region(t Track) geo.Region {
	coords := make([]geo.Coordinate, len(t))
	for i, p := range t {
		coords[i] = p.Coordinate()
	}
	return geo.RegionFor(coords)
}

// FeatureCollection renders tracks as GeoJSON: a LineString per multi-point
// track and a Point for a single-point track.
func FeatureCollection(tracks []Track) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, t := range tracks {
		if len(t) == 0 {
			continue
		}
		var f *geojson.Feature
		if len(t) == 1 {
			f = geojson.NewFeature(orb.Point{t[0].Longitude, t[0].Latitude})
		} else {
			line := make(orb.LineString, len(t))
			for j, p := range t {
				line[j] = orb.Point{p.Longitude, p.Latitude}
			}
			f = geojson.NewFeature(line)
		}
		s := Summarize(i, t)
		f.Properties["index"] = i
		f.Properties["points"] = s.Points
		f.Properties["distance_m"] = s.DistanceM
		if !s.Start.IsZero() {
			f.Properties["start"] = timeutil.FormatISO(s.Start)
		}
		if !s.End.IsZero() {
			f.Properties["end"] = timeutil.FormatISO(s.End)
		}
		fc.Append(f)
	}
	return fc
}
