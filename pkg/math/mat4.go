package math

import "math"

// Mat4 is a 4x4 matrix in column-major order (OpenGL compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Perspective returns a perspective projection matrix.
// fovY is in radians, aspect is width/height.
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := 1.0 / math.Tan(fovY/2.0)
	nf := 1.0 / (near - far)

	return Mat4{
		float32(f / aspect), 0, 0, 0,
		0, float32(f), 0, 0,
		0, 0, float32((far + near) * nf), -1,
		0, 0, float32(2 * far * near * nf), 0,
	}
}

// LookAt returns a view matrix looking from eye to center with up direction.
// The basis is computed in float64 and narrowed for the GPU.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		float32(s.X), float32(u.X), float32(-f.X), 0,
		float32(s.Y), float32(u.Y), float32(-f.Y), 0,
		float32(s.Z), float32(u.Z), float32(-f.Z), 0,
		float32(-s.Dot(eye)), float32(-u.Dot(eye)), float32(f.Dot(eye)), 1,
	}
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// TransformPoint transforms a point by this matrix (w=1) with perspective divide.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	x, y, z := float32(p.X), float32(p.Y), float32(p.Z)
	rx := m[0]*x + m[4]*y + m[8]*z + m[12]
	ry := m[1]*x + m[5]*y + m[9]*z + m[13]
	rz := m[2]*x + m[6]*y + m[10]*z + m[14]
	w := m[3]*x + m[7]*y + m[11]*z + m[15]
	if w != 0 && w != 1 {
		rx, ry, rz = rx/w, ry/w, rz/w
	}
	return V3(rx, ry, rz)
}

// Ptr returns a pointer to the first element (for OpenGL uniform calls).
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}
