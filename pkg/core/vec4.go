package core

// Vec4 is a 4-component float vector, used for device-buffer records where a
// PathVertex or GBufferPixel field is packed into a float4 slot (see pkg/vertex).
type Vec4 struct {
	X, Y, Z, W float64
}

// NewVec4 creates a new Vec4.
func NewVec4(x, y, z, w float64) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// Vec4FromVec3 lifts a Vec3 into a Vec4, setting W explicitly.
func Vec4FromVec3(v Vec3, w float64) Vec4 {
	return Vec4{X: v.X, Y: v.Y, Z: v.Z, W: w}
}

// XYZ drops the W component, returning a Vec3.
func (v Vec4) XYZ() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Add returns the sum of two Vec4 values.
func (v Vec4) Add(other Vec4) Vec4 {
	return Vec4{v.X + other.X, v.Y + other.Y, v.Z + other.Z, v.W + other.W}
}

// Multiply returns the Vec4 scaled by a scalar.
func (v Vec4) Multiply(scalar float64) Vec4 {
	return Vec4{v.X * scalar, v.Y * scalar, v.Z * scalar, v.W * scalar}
}

// Dot returns the dot product of two Vec4 values.
func (v Vec4) Dot(other Vec4) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z + v.W*other.W
}
