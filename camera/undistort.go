package camera

import (
	"gocv.io/x/gocv"

	"github.com/mprib/caliscope-core/geometry"
)

// UndistortNormalize removes lens distortion and maps pixel coordinates into
// the unit-focal normalized image plane (K = identity), via
// gocv.UndistortPoints. This is the step every bootstrap strategy performs
// before any linear algebra that assumes a pinhole model.
func (c Camera) UndistortNormalize(pts []geometry.Point2) []geometry.Point2 {
	if len(pts) == 0 {
		return nil
	}

	src := gocv.NewMatWithSize(len(pts), 1, gocv.MatTypeCV64FC2)
	defer src.Close()
	for i, p := range pts {
		src.SetDoubleAt(i, 0, p.X)
		src.SetDoubleAt(i, 1, p.Y)
	}

	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer k.Close()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			k.SetDoubleAt(i, j, c.Matrix[i][j])
		}
	}

	d := gocv.NewMatWithSize(1, 5, gocv.MatTypeCV64F)
	defer d.Close()
	if c.HasDistortion {
		d.SetDoubleAt(0, 0, c.Distortion.K1)
		d.SetDoubleAt(0, 1, c.Distortion.K2)
		d.SetDoubleAt(0, 2, c.Distortion.P1)
		d.SetDoubleAt(0, 3, c.Distortion.P2)
		d.SetDoubleAt(0, 4, c.Distortion.K3)
	}

	identity := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer identity.Close()
	identity.SetDoubleAt(0, 0, 1)
	identity.SetDoubleAt(1, 1, 1)
	identity.SetDoubleAt(2, 2, 1)

	r := gocv.NewMat()
	defer r.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.UndistortPoints(src, &dst, k, d, r, identity)

	out := make([]geometry.Point2, len(pts))
	for i := range pts {
		out[i] = geometry.Point2{X: dst.GetDoubleAt(i, 0), Y: dst.GetDoubleAt(i, 1)}
	}
	return out
}
