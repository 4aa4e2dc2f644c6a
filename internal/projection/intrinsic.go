package projection

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Intrinsic is a 3x3 pinhole camera matrix K, row-major:
//
//	[[fx  s cx],
//	 [ 0 fy cy],
//	 [ 0  0  1]]
type Intrinsic [9]float64

// NewIntrinsic builds a skew-free camera matrix.
func NewIntrinsic(fx, fy, cx, cy float64) Intrinsic {
	return Intrinsic{
		fx, 0, cx,
		0, fy, cy,
		0, 0, 1,
	}
}

func (k Intrinsic) Fx() float64 { return k[0] }
func (k Intrinsic) Fy() float64 { return k[4] }
func (k Intrinsic) Cx() float64 { return k[2] }
func (k Intrinsic) Cy() float64 { return k[5] }

// Dense returns K as a gonum matrix.
func (k Intrinsic) Dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, k[:])
	return mat.NewDense(3, 3, data)
}

// IntrinsicFromDense converts a 3x3 matrix into an Intrinsic and validates it.
func IntrinsicFromDense(m mat.Matrix) (Intrinsic, error) {
	var k Intrinsic
	if m == nil {
		return k, fmt.Errorf("%w: intrinsic is nil", ErrInvalidConfig)
	}
	r, c := m.Dims()
	if r != 3 || c != 3 {
		return k, fmt.Errorf("%w: intrinsic must be 3x3, got %dx%d", ErrInvalidConfig, r, c)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			k[i*3+j] = m.At(i, j)
		}
	}
	if err := k.Validate(); err != nil {
		return Intrinsic{}, err
	}
	return k, nil
}

// Validate checks that K is a usable pinhole matrix.
func (k Intrinsic) Validate() error {
	for i, v := range k {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: intrinsic entry (%d,%d) is not finite", ErrInvalidConfig, i/3, i%3)
		}
	}
	if k.Fx() <= 0 {
		return fmt.Errorf("%w: invalid focal length fx = %v", ErrInvalidConfig, k.Fx())
	}
	if k.Fy() <= 0 {
		return fmt.Errorf("%w: invalid focal length fy = %v", ErrInvalidConfig, k.Fy())
	}
	if k[3] != 0 || k[6] != 0 || k[7] != 0 || k[8] != 1 {
		return fmt.Errorf("%w: intrinsic must have rows [_ _ _] [0 _ _] [0 0 1], got %v", ErrInvalidConfig, k)
	}
	return nil
}

// Project maps a camera-frame point to continuous pixel coordinates:
// (u', v', w') = K·p, (u, v) = (u'/w', v'/w'). The caller must ensure
// p.Z > 0.
func (k Intrinsic) Project(p r3.Vector) (u, v float64) {
	up := k[0]*p.X + k[1]*p.Y + k[2]*p.Z
	vp := k[3]*p.X + k[4]*p.Y + k[5]*p.Z
	wp := k[6]*p.X + k[7]*p.Y + k[8]*p.Z
	return up / wp, vp / wp
}
