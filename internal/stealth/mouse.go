package stealth

import (
	"math"
	"math/rand"
)

// Point represents a 2D viewport coordinate
type Point struct {
	X, Y float64
}

// Mouse produces curved cursor paths so clicks are preceded by plausible movement
type Mouse struct {
	speedMin        float64
	speedMax        float64
	overshootChance float64
	rng             *rand.Rand
}

// NewMouse creates a new Mouse instance
func NewMouse(speedMin, speedMax, overshootChance float64, rng *rand.Rand) *Mouse {
	if speedMin <= 0 {
		speedMin = 1
	}
	if speedMax < speedMin {
		speedMax = speedMin
	}
	return &Mouse{
		speedMin:        speedMin,
		speedMax:        speedMax,
		overshootChance: overshootChance,
		rng:             rng,
	}
}

// Path returns the points from start to end along a cubic Bézier curve. The last point is
// always end. With probability overshootChance the curve passes the target and a short
// correction curve comes back to it.
func (m *Mouse) Path(start, end Point) []Point {
	distance := math.Hypot(end.X-start.X, end.Y-start.Y)
	if distance < 1.0 {
		return []Point{end}
	}

	aim := end
	if m.rng.Float64() < m.overshootChance {
		past := distance * (0.1 + m.rng.Float64()*0.2)
		angle := math.Atan2(end.Y-start.Y, end.X-start.X)
		aim = Point{X: end.X + past*math.Cos(angle), Y: end.Y + past*math.Sin(angle)}
	}

	speed := m.speedMin + m.rng.Float64()*(m.speedMax-m.speedMin)
	steps := clamp(int(distance/(10.0*speed)), 10, 100)
	points := bezier(m.controlPoints(start, aim), steps)

	if aim != end {
		points = append(points, bezier(m.controlPoints(aim, end), clamp(int(distance*0.2), 5, 30))...)
	}
	return points
}

// controlPoints bends the segment start→end sideways by 20-50% of its length
func (m *Mouse) controlPoints(start, end Point) [4]Point {
	dx, dy := end.X-start.X, end.Y-start.Y
	length := math.Hypot(dx, dy)

	var px, py float64
	if length > 0 {
		scale := (0.2 + m.rng.Float64()*0.3) * length
		px, py = -dy/length*scale, dx/length*scale
	}

	return [4]Point{
		start,
		{X: start.X + px*(0.3+m.rng.Float64()*0.4), Y: start.Y + py*(0.3+m.rng.Float64()*0.4)},
		{X: end.X - px*(0.3+m.rng.Float64()*0.4), Y: end.Y - py*(0.3+m.rng.Float64()*0.4)},
		end,
	}
}

// bezier samples B(t) = (1-t)³P₀ + 3(1-t)²tP₁ + 3(1-t)t²P₂ + t³P₃ at steps points
func bezier(p [4]Point, steps int) []Point {
	points := make([]Point, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		mt := 1 - t
		a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
		points[i] = Point{
			X: a*p[0].X + b*p[1].X + c*p[2].X + d*p[3].X,
			Y: a*p[0].Y + b*p[1].Y + c*p[2].Y + d*p[3].Y,
		}
	}
	return points
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
