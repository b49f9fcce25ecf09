package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mprib/caliscope-core/geometry"
)

func TestCamera_IsPosed(t *testing.T) {
	c := Camera{Port: 0, Matrix: Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
	assert.False(t, c.IsPosed())

	posed := c.WithPose(geometry.Identity())
	assert.True(t, posed.IsPosed())

	ignored := posed
	ignored.Ignore = true
	assert.False(t, ignored.IsPosed())

	unposed := posed.WithoutPose()
	assert.False(t, unposed.IsPosed())
	assert.False(t, unposed.HasPose)
}

func TestCamera_RotateWrapsAtThreeSteps(t *testing.T) {
	c := Camera{Port: 0, RotationCount: 3}
	wrapped := c.RotateCW()
	assert.Equal(t, -3, wrapped.RotationCount)

	back := wrapped.RotateCCW()
	assert.Equal(t, 3, back.RotationCount)
}

func TestCamera_RotateCCWFromZero(t *testing.T) {
	c := Camera{Port: 0}
	assert.Equal(t, -1, c.RotateCCW().RotationCount)
	assert.Equal(t, 1, c.RotateCW().RotationCount)
}
