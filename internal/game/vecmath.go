package game

import (
	"math"
	"math/rand"
)

// Vec2 is a world-space point or direction in arena pixels.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Scale returns v*s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{X: v.X * s, Y: v.Y * s} }

// Distance is the Euclidean distance between a and b.
func Distance(a, b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Normalize returns the unit vector of (x, y). The zero vector maps to the
// zero vector.
func Normalize(x, y float64) Vec2 {
	l := math.Hypot(x, y)
	if l > 0 {
		return Vec2{X: x / l, Y: y / l}
	}
	return Vec2{}
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 { return deg * math.Pi / 180 }

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// Lerp is a + (b-a)*t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpAngle interpolates between two headings in degrees along the shortest
// arc. The difference is wrapped into (-180, 180] before scaling by t.
func LerpAngle(from, to, t float64) float64 {
	diff := to - from
	for diff > 180 {
		diff -= 360
	}
	for diff <= -180 {
		diff += 360
	}
	return from + diff*t
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// RandomRange samples uniformly from [lo, hi].
func RandomRange(rng *rand.Rand, lo, hi float64) float64 {
	return rng.Float64()*(hi-lo) + lo
}

// bearing returns the heading in degrees from a toward b.
func bearing(a, b Vec2) float64 {
	return ToDegrees(math.Atan2(b.Y-a.Y, b.X-a.X))
}

// polar returns origin + (cos, sin)(deg) * length.
func polar(origin Vec2, deg, length float64) Vec2 {
	r := ToRadians(deg)
	return Vec2{
		X: origin.X + math.Cos(r)*length,
		Y: origin.Y + math.Sin(r)*length,
	}
}
