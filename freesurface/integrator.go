// Package freesurface advances the model free surface: either by
// split-explicit sub-stepping of the barotropic mode or by a single implicit
// elliptic solve per outer step.
package freesurface

import "fmt"

// IntegratorKind selects the barotropic sub-step time integrator.
type IntegratorKind uint8

const (
	// ForwardBackward advances the surface with the current transport and
	// the transport with the just-updated surface.
	ForwardBackward IntegratorKind = iota
	// AdamsBashforth3 extrapolates the transport over three lagged levels
	// and the surface over four.
	AdamsBashforth3
)

func (k IntegratorKind) String() string {
	switch k {
	case ForwardBackward:
		return "ForwardBackward"
	case AdamsBashforth3:
		return "AdamsBashforth3"
	default:
		return fmt.Sprintf("IntegratorKind(%d)", uint8(k))
	}
}

// Integrator carries the weight set of one time-integrator variant. The
// weights are fixed at construction; kernels read them without further
// dispatch.
type Integrator struct {
	Kind IntegratorKind

	// Transport extrapolation, U* = Alpha*U + Theta*U(m-1) + Beta*U(m-2).
	Beta, Alpha, Theta float64

	// Surface extrapolation,
	// eta* = Delta*eta(m+1) + Mu*eta(m) + Gamma*eta(m-1) + Epsilon*eta(m-2).
	Gamma, Delta, Epsilon, Mu float64
}

// NewForwardBackward builds the forward-backward variant: no extrapolation,
// surface update sees only the current transport and the transport update
// sees only the just-updated surface.
func NewForwardBackward() Integrator {
	return Integrator{
		Kind:  ForwardBackward,
		Alpha: 1,
		Delta: 1,
	}
}

// DefaultAB3Beta is the dissipative offset of the third-order
// Adams-Bashforth barotropic integrator.
const DefaultAB3Beta = 0.281105

// NewAdamsBashforth3 builds the AB3 variant from its beta offset. Passing a
// non-positive beta selects DefaultAB3Beta.
func NewAdamsBashforth3(beta float64) Integrator {
	if beta <= 0 {
		beta = DefaultAB3Beta
	}
	const (
		gamma   = 0.088
		delta   = 0.614
		epsilon = 0.013
	)
	return Integrator{
		Kind:    AdamsBashforth3,
		Beta:    beta,
		Alpha:   1.5 + beta,
		Theta:   -(0.5 + 2*beta),
		Gamma:   gamma,
		Delta:   delta,
		Epsilon: epsilon,
		Mu:      1 - delta - gamma - epsilon,
	}
}
