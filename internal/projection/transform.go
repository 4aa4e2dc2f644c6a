package projection

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// RigidTolerance is the tolerance used when checking that the rotation block
// of a Transform is a proper rotation.
const RigidTolerance = 0.01

// Transform is a 4x4 homogeneous body → camera transform, row-major:
// m00,m01,m02,m03, m10,...
type Transform [16]float64

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at row i, column j.
func (t Transform) At(i, j int) float64 {
	return t[i*4+j]
}

// Apply maps a body-frame point into the camera frame. The point is lifted
// to (x, y, z, 1) and the homogeneous coordinate of the result is dropped.
func (t Transform) Apply(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: t[0]*p.X + t[1]*p.Y + t[2]*p.Z + t[3],
		Y: t[4]*p.X + t[5]*p.Y + t[6]*p.Z + t[7],
		Z: t[8]*p.X + t[9]*p.Y + t[10]*p.Z + t[11],
	}
}

// Translation returns the last column of the transform.
func (t Transform) Translation() r3.Vector {
	return r3.Vector{X: t[3], Y: t[7], Z: t[11]}
}

// Dense returns the transform as a gonum matrix.
func (t Transform) Dense() *mat.Dense {
	data := make([]float64, 16)
	copy(data, t[:])
	return mat.NewDense(4, 4, data)
}

// TransformFromDense converts a 4x4 matrix into a Transform. Any other
// shape, non-finite entries, or a last row other than 0 0 0 1 is a
// configuration error.
func TransformFromDense(m mat.Matrix) (Transform, error) {
	var t Transform
	if m == nil {
		return t, fmt.Errorf("%w: extrinsic is nil", ErrInvalidConfig)
	}
	r, c := m.Dims()
	if r != 4 || c != 4 {
		return t, fmt.Errorf("%w: extrinsic must be 4x4, got %dx%d", ErrInvalidConfig, r, c)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			t[i*4+j] = m.At(i, j)
		}
	}
	if err := t.Validate(); err != nil {
		return Transform{}, err
	}
	return t, nil
}

// Validate checks that every entry is finite and that the last row is
// 0 0 0 1. It does not require the rotation block to be orthonormal; see
// IsRigid.
func (t Transform) Validate() error {
	for i, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: extrinsic entry (%d,%d) is not finite", ErrInvalidConfig, i/4, i%4)
		}
	}
	if t[12] != 0 || t[13] != 0 || t[14] != 0 || math.Abs(t[15]-1.0) > 0.001 {
		return fmt.Errorf("%w: extrinsic last row must be [0 0 0 1], got %v", ErrInvalidConfig, t[12:16])
	}
	return nil
}

// IsRigid reports whether the rotation block is a proper rotation
// (determinant ≈ 1) and the last row is 0 0 0 1.
func (t Transform) IsRigid() bool {
	r00, r01, r02 := t[0], t[1], t[2]
	r10, r11, r12 := t[4], t[5], t[6]
	r20, r21, r22 := t[8], t[9], t[10]

	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > RigidTolerance {
		return false
	}
	return t.Validate() == nil
}

// Params are the six calibration parameters of an extrinsic: translation in
// metres and rotation in degrees.
type Params struct {
	TX, TY, TZ       float64
	Roll, Pitch, Yaw float64
}

// BuildTransform composes Rz(yaw)·Ry(pitch)·Rx(roll) and places the
// translation in the last column. Equal inputs give bit-identical output.
func BuildTransform(p Params) Transform {
	rx, ry, rz := degToRad(p.Roll), degToRad(p.Pitch), degToRad(p.Yaw)

	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)

	rotX := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})
	rotY := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	rotZ := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})

	var rot mat.Dense
	rot.Product(rotZ, rotY, rotX)

	t := Identity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i*4+j] = rot.At(i, j)
		}
	}
	t[3], t[7], t[11] = p.TX, p.TY, p.TZ
	return t
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
