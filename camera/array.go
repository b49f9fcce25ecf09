package camera

import "sort"

// Array is an ordered collection of cameras keyed by port. Port numbers are
// stable external identifiers and need not be contiguous; the derived
// PosedPortToIndex mapping is what optimization code indexes parameters by.
type Array struct {
	cameras map[int]Camera
	ports   []int // insertion order, kept for deterministic iteration
}

// NewArray builds an Array from a set of cameras. Port numbers must be
// unique; duplicates overwrite earlier entries (last write wins), matching
// the "port -> Camera mapping" data model.
func NewArray(cameras []Camera) Array {
	a := Array{cameras: make(map[int]Camera, len(cameras))}
	for _, c := range cameras {
		if _, exists := a.cameras[c.Port]; !exists {
			a.ports = append(a.ports, c.Port)
		}
		a.cameras[c.Port] = c
	}
	return a
}

// Ports returns all ports in stable insertion order.
func (a Array) Ports() []int {
	out := make([]int, len(a.ports))
	copy(out, a.ports)
	return out
}

// Len returns the number of cameras (including ignored ones).
func (a Array) Len() int { return len(a.ports) }

// Get returns the camera at port and whether it exists.
func (a Array) Get(port int) (Camera, bool) {
	c, ok := a.cameras[port]
	return c, ok
}

// With returns a new Array with the camera at its port replaced. The port
// must already exist; the port set is fixed for the life of an array per
// the data model's invariant.
func (a Array) With(c Camera) Array {
	out := Array{cameras: make(map[int]Camera, len(a.cameras)), ports: a.ports}
	for k, v := range a.cameras {
		out.cameras[k] = v
	}
	out.cameras[c.Port] = c
	return out
}

// PosedCameras returns the subset of cameras that are posed, in port order.
func (a Array) PosedCameras() []Camera {
	var out []Camera
	for _, p := range a.sortedPorts() {
		c := a.cameras[p]
		if c.IsPosed() {
			out = append(out, c)
		}
	}
	return out
}

// UnposedCameras returns the complement of PosedCameras, excluding ignored
// cameras.
func (a Array) UnposedCameras() []Camera {
	var out []Camera
	for _, p := range a.sortedPorts() {
		c := a.cameras[p]
		if !c.IsPosed() && !c.Ignore {
			out = append(out, c)
		}
	}
	return out
}

// PosedPortToIndex returns the stable port->index mapping used as the
// optimization parameter index: posed ports in ascending order map to
// [0, n_posed).
func (a Array) PosedPortToIndex() map[int]int {
	idx := make(map[int]int)
	i := 0
	for _, p := range a.sortedPorts() {
		if c := a.cameras[p]; c.IsPosed() {
			idx[p] = i
			i++
		}
	}
	return idx
}

func (a Array) sortedPorts() []int {
	out := make([]int, len(a.ports))
	copy(out, a.ports)
	sort.Ints(out)
	return out
}

// HasIntrinsics reports whether every non-ignored camera has its intrinsic
// matrix set to something other than the zero matrix. Pose estimation
// requires this invariant to hold before it begins.
func (a Array) HasIntrinsics() bool {
	for _, p := range a.ports {
		c := a.cameras[p]
		if c.Ignore {
			continue
		}
		if c.Matrix == (Matrix3{}) {
			return false
		}
	}
	return true
}
