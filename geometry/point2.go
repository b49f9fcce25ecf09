package geometry

// Point2 is a 2D pixel or normalized-image-plane coordinate.
type Point2 struct {
	X, Y float64
}
