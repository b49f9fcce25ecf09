package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/points"
)

func TestSelectDiverseBoards_ReturnsAllWhenUnderSampleSize(t *testing.T) {
	candidates := []frameCandidate{{syncIndex: 5, pointCount: 8}, {syncIndex: 1, pointCount: 6}}
	got := selectDiverseBoards(candidates, 10)
	assert.Equal(t, []int{1, 5}, got)
}

func TestSelectDiverseBoards_SpreadsAcrossTemporalBins(t *testing.T) {
	var candidates []frameCandidate
	for i := 0; i < 100; i++ {
		candidates = append(candidates, frameCandidate{syncIndex: i, pointCount: 6})
	}
	got := selectDiverseBoards(candidates, 10)
	require.Len(t, got, 10)

	// Picks should be spread across the full range, not clustered at one end.
	assert.Less(t, got[0], 20)
	assert.GreaterOrEqual(t, got[len(got)-1], 80)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i])
	}
}

func TestSharedFrames_RequiresMinimumSharedPoints(t *testing.T) {
	byPort := map[int]map[int]map[int]points.ImageRow{
		0: {0: {1: {}, 2: {}, 3: {}}},
		1: {0: {1: {}, 2: {}}},
	}
	got := sharedFrames(byPort, 0, 1, 3)
	assert.Empty(t, got)

	got = sharedFrames(byPort, 0, 1, 2)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].pointCount)
}

func TestBuildStereocalibrateNetwork_EmptyWhenNoSharedFrames(t *testing.T) {
	cams := camera.NewArray([]camera.Camera{
		{Port: 0, Matrix: identityIntrinsics(), Size: camera.Size{Width: 100, Height: 100}},
		{Port: 1, Matrix: identityIntrinsics(), Size: camera.Size{Width: 100, Height: 100}},
	})

	ip, err := points.NewImagePoints([]points.ImageRow{
		{SyncIndex: 0, Port: 0, PointID: 1, HasObj: true},
		{SyncIndex: 1, Port: 1, PointID: 1, HasObj: true},
	})
	require.NoError(t, err)

	net := BuildStereocalibrateNetwork(ip, cams, StereoOptions{})
	_, ok := net.Get(0, 1)
	assert.False(t, ok)
}
