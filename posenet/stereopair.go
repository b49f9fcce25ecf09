// Package posenet assembles the noisy graph of pairwise stereo poses into a
// single globally consistent camera pose estimate, via bridging, inversion,
// and anchor selection over an immutable edge set.
package posenet

import "github.com/mprib/caliscope-core/geometry"

// StereoPair is a directly- or bridged-measured relative pose from
// PrimaryPort to SecondaryPort.
type StereoPair struct {
	PrimaryPort, SecondaryPort int
	Pose                       geometry.Transform
	ErrorScore                 float64
}

// Inverse returns the pair (SecondaryPort -> PrimaryPort).
func (p StereoPair) Inverse() StereoPair {
	return StereoPair{
		PrimaryPort:   p.SecondaryPort,
		SecondaryPort: p.PrimaryPort,
		Pose:          p.Pose.Inverse(),
		ErrorScore:    p.ErrorScore,
	}
}

// Bridge composes p (A->B) with q (B->C) into a pair (A->C), summing error
// scores. Composition follows compose(T_AB, T_BC) = T_AC = T_BC . T_AB.
func Bridge(p, q StereoPair) (StereoPair, bool) {
	if p.SecondaryPort != q.PrimaryPort {
		return StereoPair{}, false
	}
	return StereoPair{
		PrimaryPort:   p.PrimaryPort,
		SecondaryPort: q.SecondaryPort,
		Pose:          geometry.Compose(p.Pose, q.Pose),
		ErrorScore:    p.ErrorScore + q.ErrorScore,
	}, true
}
