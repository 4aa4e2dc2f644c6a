// Package lane parses per-frame lane records emitted by the lane-detection
// sensor into polynomial lane descriptors.
package lane

import "fmt"

// Side classifies a lane relative to the ego vehicle. It is only used to
// pick a render colour downstream.
type Side int

const (
	// SideUnknown covers center lanes and anything the sensor did not classify.
	SideUnknown Side = 0
	// SideRight is a lane boundary on the right of the vehicle.
	SideRight Side = 1
	// SideLeft is a lane boundary on the left of the vehicle.
	SideLeft Side = 2
)

// String returns a short name for the side tag.
func (s Side) String() string {
	switch s {
	case SideUnknown:
		return "unknown"
	case SideRight:
		return "right"
	case SideLeft:
		return "left"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Descriptor is one lane hypothesis for one frame. The lateral offset is
// y(x) = Σ Coefficients[k]·x^k in vehicle-body coordinates, trusted over
// x ∈ [0, Length] metres.
type Descriptor struct {
	Coefficients []float64
	Length       float64
	Confidence   float64
	Side         Side
}

// Eval evaluates the lane polynomial at longitudinal distance x.
func (d Descriptor) Eval(x float64) float64 {
	// Horner, highest degree first.
	y := 0.0
	for k := len(d.Coefficients) - 1; k >= 0; k-- {
		y = y*x + d.Coefficients[k]
	}
	return y
}

// Degree returns the polynomial degree, or -1 for an empty coefficient list.
func (d Descriptor) Degree() int {
	return len(d.Coefficients) - 1
}
