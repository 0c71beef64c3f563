package mathutil

// Quat represents a quaternion stored (w, x, y, z), the component order
// used by KMD block rotations.
type Quat [4]float64

// QuatToMat3 converts a quaternion to a 3×3 rotation matrix. The
// quaternion is not required to be normalized; a zero quaternion maps to
// the identity.
func QuatToMat3(q Quat) Mat3 {
	w, x, y, z := q[0], q[1], q[2], q[3]

	n := w*w + x*x + y*y + z*z
	if n < 1e-12 {
		return Mat3Identity()
	}
	s := 2.0 / n

	xx, yy, zz := x*x*s, y*y*s, z*z*s
	xy, xz, yz := x*y*s, x*z*s, y*z*s
	wx, wy, wz := w*x*s, w*y*s, w*z*s

	return Mat3{
		1 - (yy + zz), xy - wz, xz + wy,
		xy + wz, 1 - (xx + zz), yz - wx,
		xz - wy, yz + wx, 1 - (xx + yy),
	}
}
