package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rotZ(radians float64) Rotation {
	c, s := math.Cos(radians), math.Sin(radians)
	return Rotation{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

func TestTransform_InverseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tf   Transform
		p    Vec3
	}{
		{"identity", Identity(), Vec3{1, 2, 3}},
		{"rotation only", Transform{R: rotZ(math.Pi / 4)}, Vec3{1, 0, 0}},
		{"rotation and translation", Transform{R: rotZ(math.Pi / 3), T: Vec3{5, -2, 1}}, Vec3{0.5, 1.5, -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moved := tt.tf.Apply(tt.p)
			back := tt.tf.Inverse().Apply(moved)
			assert.InDelta(t, tt.p[0], back[0], 1e-9)
			assert.InDelta(t, tt.p[1], back[1], 1e-9)
			assert.InDelta(t, tt.p[2], back[2], 1e-9)
		})
	}
}

func TestTransform_ComposeMatchesSequentialApply(t *testing.T) {
	tf := Transform{R: rotZ(math.Pi / 6), T: Vec3{1, 0, 0}}
	other := Transform{R: rotZ(-math.Pi / 5), T: Vec3{0, 2, 0}}
	p := Vec3{3, -1, 2}

	composed := Compose(tf, other)
	direct := other.Apply(tf.Apply(p))
	got := composed.Apply(p)

	assert.InDelta(t, direct[0], got[0], 1e-9)
	assert.InDelta(t, direct[1], got[1], 1e-9)
	assert.InDelta(t, direct[2], got[2], 1e-9)
}

func TestRotation_TransposeIsInverseForOrthogonalMatrix(t *testing.T) {
	r := rotZ(1.234)
	rt := r.Transpose()

	var product Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var acc float64
			for k := 0; k < 3; k++ {
				acc += r[i][k] * rt[k][j]
			}
			product[i][j] = acc
		}
	}
	identity := Identity3()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, identity[i][j], product[i][j], 1e-9)
		}
	}
}

func TestRodriguesRoundTrip(t *testing.T) {
	rvec := Vec3{0.1, -0.2, 0.3}
	r, err := RodriguesToMatrix(rvec)
	require.NoError(t, err)

	back, err := MatrixToRodrigues(r)
	require.NoError(t, err)

	assert.InDelta(t, rvec[0], back[0], 1e-6)
	assert.InDelta(t, rvec[1], back[1], 1e-6)
	assert.InDelta(t, rvec[2], back[2], 1e-6)
}
