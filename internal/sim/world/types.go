package world

type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

// Center returns the middle of the block's footprint at the block's floor.
func (v Vec3i) Center() Vec3 {
	return Vec3{X: float64(v.X) + 0.5, Y: float64(v.Y), Z: float64(v.Z) + 0.5}
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

// Chebyshev is the block distance used for reach and observation radius.
func Chebyshev(a, b Vec3i) int {
	d := abs(a.X - b.X)
	if dy := abs(a.Y - b.Y); dy > d {
		d = dy
	}
	if dz := abs(a.Z - b.Z); dz > d {
		d = dz
	}
	return d
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
