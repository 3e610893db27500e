package core

import "math"

// Mat4 is a 4x4 matrix in row-major order, used for the world-view and
// projection pair consumed by worldPosToScreenSpace (see pkg/camfactor).
type Mat4 struct {
	M [16]float64
}

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	m := Mat4{}
	m.M[0], m.M[5], m.M[10], m.M[15] = 1, 1, 1, 1
	return m
}

// MulVec4 applies the matrix to a column vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		X: m.M[0]*v.X + m.M[1]*v.Y + m.M[2]*v.Z + m.M[3]*v.W,
		Y: m.M[4]*v.X + m.M[5]*v.Y + m.M[6]*v.Z + m.M[7]*v.W,
		Z: m.M[8]*v.X + m.M[9]*v.Y + m.M[10]*v.Z + m.M[11]*v.W,
		W: m.M[12]*v.X + m.M[13]*v.Y + m.M[14]*v.Z + m.M[15]*v.W,
	}
}

// Mul returns the product m * other.
func (m Mat4) Mul(other Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m.M[row*4+k] * other.M[k*4+col]
			}
			r.M[row*4+col] = sum
		}
	}
	return r
}

// LookAt builds a world-view matrix placing the camera at eye, looking toward
// target, with the given up vector.
func LookAt(eye, target, up Vec3) Mat4 {
	fwd := target.Subtract(eye).Normalize()
	right := fwd.Cross(up).Normalize()
	newUp := right.Cross(fwd)

	return Mat4{M: [16]float64{
		right.X, right.Y, right.Z, -right.Dot(eye),
		newUp.X, newUp.Y, newUp.Z, -newUp.Dot(eye),
		-fwd.X, -fwd.Y, -fwd.Z, fwd.Dot(eye),
		0, 0, 0, 1,
	}}
}

// Perspective builds a right-handed perspective-projection matrix from a
// vertical field of view (radians), aspect ratio W/H, and near/far planes.
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := 1.0 / math.Tan(fovY/2)
	m := Mat4{}
	m.M[0] = f / aspect
	m.M[5] = f
	m.M[10] = (far + near) / (near - far)
	m.M[11] = (2 * far * near) / (near - far)
	m.M[14] = -1
	return m
}
