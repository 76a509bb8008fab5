package math

// Rotation holds the engine's Euler angles in degrees: A is pitch, B is yaw
// and G is roll.
type Rotation struct {
	A, B, G float32
}

// Add returns r + other, component-wise.
func (r Rotation) Add(other Rotation) Rotation {
	return Rotation{r.A + other.A, r.B + other.B, r.G + other.G}
}
