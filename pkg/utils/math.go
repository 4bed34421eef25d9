package utils

import "math"

// ClampFloat64 clamps a float64 value between min and max
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Interval is a closed real interval [Low, High].
type Interval struct {
	Low  float64
	High float64
}

// Centered returns [center - halfWidth, center + halfWidth].
func Centered(center, halfWidth float64) Interval {
	return Interval{Low: center - halfWidth, High: center + halfWidth}
}

// Intersect keeps the tighter bound on each side. The result may be empty
// (Low > High) when the intervals do not overlap.
func (iv Interval) Intersect(other Interval) Interval {
	return Interval{
		Low:  math.Max(iv.Low, other.Low),
		High: math.Min(iv.High, other.High),
	}
}

// Empty reports whether the interval contains no points.
func (iv Interval) Empty() bool {
	return iv.Low > iv.High
}

// Contains reports whether v lies in [Low, High].
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Low && v <= iv.High
}

// Distance3 is the Euclidean distance between two points in space.
func Distance3(ax, ay, az, bx, by, bz float64) float64 {
	dx := ax - bx
	dy := ay - by
	dz := az - bz
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// FloorToMultiple rounds a non-negative value down to the nearest multiple of m.
func FloorToMultiple(value, m int) int {
	if m <= 1 {
		return value
	}
	return (value / m) * m
}
