package trip

import "math"

// EffectiveZoom collapses a viewport span into one metric. Larger is wider.
func EffectiveZoom(latDelta, lngDelta float64) float64 {
	return math.Sqrt(math.Abs(latDelta * lngDelta))
}

// Stride picks how many points to skip between kept points for a track of n
// points viewed at zoom.
func Stride(zoom float64, n int) int {
	switch {
	case zoom > 0.07:
		if n < 1 {
			return 1
		}
		return n
	case zoom > 0.05:
		return 15
	case zoom > 0.02:
		return 10
	case zoom > 0.01:
		return 5
	case zoom > 0.005:
		return 3
	default:
		return 1
	}
}

// Sample returns the points of track worth drawing at zoom: the first, the
// last and every stride-th point in between. The input is never modified.
func Sample(track Track, zoom float64) Track {
	n := len(track)
	if n == 0 {
		return Track{}
	}
	k := Stride(zoom, n)
	out := make(Track, 0, n/k+2)
	for i, p := range track {
		if i == 0 || i == n-1 || i%k == 0 {
			out = append(out, p)
		}
	}
	return out
}
