// Stereocalibrate strategy: pairwise extrinsics on deterministically
// sampled, genuinely simultaneous shared board views.
package bootstrap

import (
	"sort"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/logging"
	"github.com/mprib/caliscope-core/points"
	"github.com/mprib/caliscope-core/posenet"
)

type frameCandidate struct {
	syncIndex  int
	pointCount int
}

// sharedObservations groups ImagePoints rows by port, then sync index, then
// point_id, restricted to the two ports of interest.
func sharedObservations(ip points.ImagePoints, portA, portB int) map[int]map[int]map[int]points.ImageRow {
	out := map[int]map[int]map[int]points.ImageRow{portA: {}, portB: {}}
	for _, r := range ip.Rows {
		if r.Port != portA && r.Port != portB {
			continue
		}
		if out[r.Port][r.SyncIndex] == nil {
			out[r.Port][r.SyncIndex] = make(map[int]points.ImageRow)
		}
		out[r.Port][r.SyncIndex][r.PointID] = r
	}
	return out
}

func sharedFrames(byPort map[int]map[int]map[int]points.ImageRow, portA, portB int, minShared int) []frameCandidate {
	var out []frameCandidate
	for sync, aPoints := range byPort[portA] {
		bPoints, ok := byPort[portB][sync]
		if !ok {
			continue
		}
		count := 0
		for id := range aPoints {
			if _, ok := bPoints[id]; ok {
				count++
			}
		}
		if count >= minShared {
			out = append(out, frameCandidate{syncIndex: sync, pointCount: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].pointCount != out[j].pointCount {
			return out[i].pointCount > out[j].pointCount
		}
		return out[i].syncIndex < out[j].syncIndex
	})
	return out
}

// selectDiverseBoards deterministically chooses up to sampleSize sync
// indices from candidates (already sorted by quality desc, sync index asc):
// it spreads the pick across time by binning the sync-index range into
// sampleSize buckets and taking the best-quality frame per bucket, then
// fills any shortfall from the remaining top-quality frames.
func selectDiverseBoards(candidates []frameCandidate, sampleSize int) []int {
	if len(candidates) <= sampleSize {
		out := make([]int, len(candidates))
		for i, c := range candidates {
			out[i] = c.syncIndex
		}
		sort.Ints(out)
		return out
	}

	minSync, maxSync := candidates[0].syncIndex, candidates[0].syncIndex
	for _, c := range candidates {
		if c.syncIndex < minSync {
			minSync = c.syncIndex
		}
		if c.syncIndex > maxSync {
			maxSync = c.syncIndex
		}
	}
	span := float64(maxSync-minSync) + 1

	chosen := make(map[int]bool)
	var result []int
	for bin := 0; bin < sampleSize; bin++ {
		lo := minSync + int(float64(bin)/float64(sampleSize)*span)
		hi := minSync + int(float64(bin+1)/float64(sampleSize)*span)
		for _, c := range candidates {
			if chosen[c.syncIndex] {
				continue
			}
			if c.syncIndex >= lo && c.syncIndex < hi {
				chosen[c.syncIndex] = true
				result = append(result, c.syncIndex)
				break
			}
		}
	}

	if len(result) < sampleSize {
		for _, c := range candidates {
			if len(result) >= sampleSize {
				break
			}
			if chosen[c.syncIndex] {
				continue
			}
			chosen[c.syncIndex] = true
			result = append(result, c.syncIndex)
		}
	}

	sort.Ints(result)
	return result
}

// StereoCalibratePair estimates the relative pose between two cameras from
// shared board observations. Each chosen frame is required to be a
// genuinely simultaneous view (both cameras see the board at the same
// sync index, unlike the PnP strategy's independent per-camera solves), so
// each camera's board pose is solved separately via SolvePnP and the pair
// composes and averages the per-frame relative pose, the same aggregation
// machinery the PnP strategy uses across a wider set of frames. Returns
// false if no frame met the shared-point threshold, which is a normal,
// silent bootstrap omission (InsufficientData, not an error) rather than a
// failure.
func StereoCalibratePair(ip points.ImagePoints, array camera.Array, portA, portB int, opts StereoOptions) (posenet.StereoPair, bool) {
	opts = opts.WithDefaults()
	camA, okA := array.Get(portA)
	camB, okB := array.Get(portB)
	if !okA || !okB {
		return posenet.StereoPair{}, false
	}

	byPort := sharedObservations(ip, portA, portB)
	candidates := sharedFrames(byPort, portA, portB, opts.MinSharedPoints)
	if len(candidates) == 0 {
		logging.Log.Debug().Int("port_a", portA).Int("port_b", portB).Msg("stereocalibrate: no shared frames")
		return posenet.StereoPair{}, false
	}

	chosen := selectDiverseBoards(candidates, opts.BoardsSampled)
	pnpOpts := PnPOptions{MinObservations: opts.MinSharedPoints}.WithDefaults()

	var estimates []geometry.Transform
	for _, sync := range chosen {
		aRows := byPort[portA][sync]
		bRows := byPort[portB][sync]

		bpA, okA := solveBoardPose(camA, aRows, pnpOpts)
		bpB, okB := solveBoardPose(camB, bRows, pnpOpts)
		if !okA || !okB {
			continue
		}
		estimates = append(estimates, relativePoseAtSync(bpA, bpB))
	}

	if len(estimates) == 0 {
		logging.Log.Debug().Int("port_a", portA).Int("port_b", portB).Msg("stereocalibrate: no frame produced a usable pair of board poses")
		return posenet.StereoPair{}, false
	}

	return aggregateRelativePoses(portA, portB, estimates, pnpOpts.IQRMultiplier)
}

// BuildStereocalibrateNetwork runs StereoCalibratePair over every unordered
// camera pair in array and accumulates the successful ones into a Network.
func BuildStereocalibrateNetwork(ip points.ImagePoints, array camera.Array, opts StereoOptions) posenet.Network {
	net := posenet.NewNetwork()
	ports := array.Ports()
	for i := 0; i < len(ports); i++ {
		for j := i + 1; j < len(ports); j++ {
			pair, ok := StereoCalibratePair(ip, array, ports[i], ports[j], opts)
			if !ok {
				continue
			}
			net = net.Add(pair)
		}
	}
	return net.BridgeAll()
}
