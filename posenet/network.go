package posenet

import (
	"sort"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/logging"
)

// Network is a graph of StereoPair edges keyed by (primary, secondary); for
// every directed edge (A, B) present, the inverse (B, A) is also present.
type Network struct {
	edges map[[2]int]StereoPair
}

// NewNetwork returns an empty pose network.
func NewNetwork() Network {
	return Network{edges: make(map[[2]int]StereoPair)}
}

// Add inserts pair and its inverse, returning a new Network.
func (n Network) Add(pair StereoPair) Network {
	out := n.clone()
	out.edges[[2]int{pair.PrimaryPort, pair.SecondaryPort}] = pair
	inv := pair.Inverse()
	out.edges[[2]int{inv.PrimaryPort, inv.SecondaryPort}] = inv
	return out
}

func (n Network) clone() Network {
	out := Network{edges: make(map[[2]int]StereoPair, len(n.edges))}
	for k, v := range n.edges {
		out.edges[k] = v
	}
	return out
}

// Get returns the stored pair for (a, b), if present.
func (n Network) Get(a, b int) (StereoPair, bool) {
	p, ok := n.edges[[2]int{a, b}]
	return p, ok
}

func (n Network) neighbors(port int) []int {
	seen := make(map[int]struct{})
	for k := range n.edges {
		if k[0] == port {
			seen[k[1]] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (n Network) ports() []int {
	seen := make(map[int]struct{})
	for k := range n.edges {
		seen[k[0]] = struct{}{}
		seen[k[1]] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// BridgeAll repeatedly fills missing pairs (A, C) by considering, for every
// intermediate X with both (A, X) and (X, C) present, the composed pair;
// keeps the composition with minimum summed ErrorScore. Iterates until a
// full pass produces no new edges.
func (n Network) BridgeAll() Network {
	cur := n
	for {
		next := cur.clone()
		added := false
		ports := cur.ports()
		for _, a := range ports {
			for _, c := range ports {
				if a == c {
					continue
				}
				if _, exists := cur.Get(a, c); exists {
					continue
				}
				var best StereoPair
				found := false
				for _, x := range cur.neighbors(a) {
					ab, ok := cur.Get(a, x)
					if !ok {
						continue
					}
					xc, ok := cur.Get(x, c)
					if !ok {
						continue
					}
					bridged, ok := Bridge(ab, xc)
					if !ok {
						continue
					}
					if !found || bridged.ErrorScore < best.ErrorScore {
						best = bridged
						found = true
					}
				}
				if found {
					next = next.Add(best)
					added = true
				}
			}
		}
		cur = next
		if !added {
			break
		}
	}
	return cur
}

// LargestComponent returns the ports of the largest connected component via
// BFS over the edge set. Ties are broken by smallest minimum port: when
// iterating candidate start ports in ascending order, a later component
// only replaces the current best if it is strictly larger.
func (n Network) LargestComponent() []int {
	visited := make(map[int]bool)
	var best []int
	for _, start := range n.ports() {
		if visited[start] {
			continue
		}
		component := n.bfsComponent(start)
		for _, p := range component {
			visited[p] = true
		}
		if len(component) > len(best) {
			best = component
		}
	}
	sort.Ints(best)
	return best
}

func (n Network) bfsComponent(start int) []int {
	visited := map[int]struct{}{start: {}}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range n.neighbors(cur) {
			if _, ok := visited[nb]; !ok {
				visited[nb] = struct{}{}
				queue = append(queue, nb)
			}
		}
	}
	out := make([]int, 0, len(visited))
	for p := range visited {
		out = append(out, p)
	}
	return out
}

// AnchoredArray sets anchorPort to identity pose, and for every other
// camera in anchorPort's connected component, sets its pose from the stored
// (anchor, port) pair. Cameras outside the component are left unposed.
// Returns the resulting array and the total summed error score, so callers
// can compare candidate anchors.
func (n Network) AnchoredArray(array camera.Array, anchorPort int) (camera.Array, float64) {
	out := array
	anchor, ok := out.Get(anchorPort)
	if !ok {
		return array, 0
	}
	out = out.With(anchor.WithPose(geometry.Identity()))

	var totalError float64
	for _, port := range out.Ports() {
		if port == anchorPort {
			continue
		}
		pair, ok := n.Get(anchorPort, port)
		if !ok {
			continue
		}
		c, ok := out.Get(port)
		if !ok {
			continue
		}
		out = out.With(c.WithPose(pair.Pose))
		totalError += pair.ErrorScore
	}
	return out, totalError
}

// ApplyTo picks the anchor (smallest-error anchor within the largest
// component if anchor is nil) and writes the resulting poses back. Cameras
// unreachable from the anchor remain unposed; this is a normal,
// non-error outcome (DisconnectedGraph is a warning, not a failure).
func (n Network) ApplyTo(array camera.Array, anchor *int) camera.Array {
	component := n.LargestComponent()
	if len(component) == 0 {
		return array
	}

	if len(component) < countPosable(array) {
		logging.Log.Warn().
			Int("component_size", len(component)).
			Int("posable", countPosable(array)).
			Msg("pose network: largest connected component is smaller than the full posed-camera set")
	}

	var anchorPort int
	if anchor != nil {
		anchorPort = *anchor
	} else {
		best := -1
		bestError := 0.0
		for _, candidate := range component {
			_, errScore := n.AnchoredArray(array, candidate)
			if best == -1 || errScore < bestError {
				best, bestError = candidate, errScore
			}
		}
		anchorPort = best
	}

	result, _ := n.AnchoredArray(array, anchorPort)
	return result
}

func countPosable(array camera.Array) int {
	n := 0
	for _, p := range array.Ports() {
		if c, ok := array.Get(p); ok && !c.Ignore {
			n++
		}
	}
	return n
}
