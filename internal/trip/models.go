package trip

import (
	"time"

	"tracker-parent/internal/tracking"
)

// GapThreshold is the largest gap, in whole minutes, between two consecutive
// points of the same track.
const GapThreshold = 30

// Track is a non-empty, chronologically ordered run of points.
type Track []tracking.Location

func (t Track) First() tracking.Location { return t[0] }
func (t Track) Last() tracking.Location  { return t[len(t)-1] }

// Summary describes one track for list views.
type Summary struct {
	Index       int           `json:"index"`
	Points      int           `json:"points"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Duration    time.Duration `json:"duration"`
	DistanceM   float64       `json:"distance_m"`
	AvgSpeedKmh float64       `json:"avg_speed_kmh"`
}
