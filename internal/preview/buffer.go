package preview

import (
	"image"
	"image/color"
	"math"
)

// frameBuffer holds the render target as flat slices. Larger z is nearer to
// the viewer.
type frameBuffer struct {
	width  int
	height int
	color  []uint8   // RGBA interleaved, len = w*h*4
	zbuf   []float64 // depth per pixel, initialized to -inf
}

func newFrameBuffer(w, h int, bg color.NRGBA) *frameBuffer {
	n := w * h
	fb := &frameBuffer{
		width:  w,
		height: h,
		color:  make([]uint8, n*4),
		zbuf:   make([]float64, n),
	}
	for i := range fb.zbuf {
		fb.zbuf[i] = math.Inf(-1)
		fb.color[i*4] = bg.R
		fb.color[i*4+1] = bg.G
		fb.color[i*4+2] = bg.B
		fb.color[i*4+3] = bg.A
	}
	return fb
}

func (fb *frameBuffer) plot(x, y int, z float64, c color.NRGBA) {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return
	}
	i := y*fb.width + x
	if z < fb.zbuf[i] {
		return
	}
	fb.zbuf[i] = z
	fb.color[i*4] = c.R
	fb.color[i*4+1] = c.G
	fb.color[i*4+2] = c.B
	fb.color[i*4+3] = c.A
}

// disc stamps a filled circle of radius r centred on (cx, cy).
func (fb *frameBuffer) disc(cx, cy float64, z float64, r int, c color.NRGBA) {
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				fb.plot(x0+dx, y0+dy, z, c)
			}
		}
	}
}

// line draws a thick segment between two projected points, interpolating
// depth along it.
func (fb *frameBuffer) line(a, b point, r int, c color.NRGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(b.x-a.x), math.Abs(b.y-a.y))))
	if steps == 0 {
		fb.disc(a.x, a.y, a.z, r, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		fb.disc(a.x+(b.x-a.x)*t, a.y+(b.y-a.y)*t, a.z+(b.z-a.z)*t, r, c)
	}
}

func (fb *frameBuffer) image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.width, fb.height))
	copy(img.Pix, fb.color)
	return img
}
