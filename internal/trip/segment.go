package trip

import (
	"sort"
	"time"

	"tracker-parent/internal/shared/timeutil"
	"tracker-parent/internal/tracking"
)

// Segment splits chronologically ordered points into tracks wherever two
// consecutive points are more than GapThreshold minutes apart. Empty input
// yields no tracks.
func Segment(points []tracking.Location) []Track {
	return segmentAt(points, time.Now())
}

func segmentAt(points []tracking.Location, now time.Time) []Track {
	var (
		tracks  []Track
		current Track
	)
	for i, p := range points {
		if i > 0 && gapMinutes(points[i-1], p, now) > GapThreshold {
			tracks = append(tracks, current)
			current = nil
		}
		current = append(current, p)
	}
	if len(current) > 0 {
		tracks = append(tracks, current)
	}
	return tracks
}

func gapMinutes(prev, cur tracking.Location, now time.Time) int {
	// A zero OccurredAt is already the distant past for prev and is read
	// as now for cur.
	return timeutil.MinutesBetween(prev.OccurredAt, cur.OccurredAt, now)
}

// SortByRecency orders tracks most recent first by the instant of their first
// point. Tracks whose first point has no timestamp go last; ties keep their
// input order.
func SortByRecency(tracks []Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i].First().OccurredAt, tracks[j].First().OccurredAt
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.After(b)
		}
	})
}
