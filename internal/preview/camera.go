package preview

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"mocap-bvh-csv/internal/mathutil"
)

// point is a projected position: screen x/y in pixels and view depth.
type point struct {
	x, y, z float64
}

// camera is an orthographic view rotated by yaw about the vertical axis, then
// pitched, and scaled so the fitted bounds fill a share of the image.
type camera struct {
	view   mathutil.Mat3
	center r3.Vec
	scale  float64
	half   float64
}

// newCamera frames every point of pts in a square image of size pixels.
func newCamera(pts []r3.Vec, yaw, pitch, fill float64, size int) camera {
	view := mathutil.Mat3Mul(mathutil.RotX(mathutil.Deg2Rad(pitch)), mathutil.RotY(mathutil.Deg2Rad(yaw)))

	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range pts {
		t := view.MulVec(p)
		lo = r3.Vec{X: math.Min(lo.X, t.X), Y: math.Min(lo.Y, t.Y), Z: math.Min(lo.Z, t.Z)}
		hi = r3.Vec{X: math.Max(hi.X, t.X), Y: math.Max(hi.Y, t.Y), Z: math.Max(hi.Z, t.Z)}
	}
	if len(pts) == 0 {
		lo, hi = r3.Vec{}, r3.Vec{}
	}

	extent := math.Max(hi.X-lo.X, hi.Y-lo.Y)
	if extent < 1e-6 {
		extent = 1
	}
	return camera{
		view:   view,
		center: r3.Scale(0.5, r3.Add(lo, hi)),
		scale:  fill * float64(size) / extent,
		half:   float64(size) / 2,
	}
}

func (c camera) project(p r3.Vec) point {
	t := r3.Sub(c.view.MulVec(p), c.center)
	return point{
		x: c.half + t.X*c.scale,
		y: c.half - t.Y*c.scale,
		z: t.Z,
	}
}
