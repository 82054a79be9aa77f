// Package preview draws one frame of a clip as a stick figure: bones as
// depth-tested lines between world positions, joints as dots.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"

	"mocap-bvh-csv/internal/kinematics"
	"mocap-bvh-csv/internal/skeleton"
)

const defaultFill = 0.85

// Options controls Render.
type Options struct {
	Size        int     // output edge in pixels; zero means 512
	Supersample int     // render at Size×Supersample then downsample; zero means 2
	Yaw         float64 // degrees about the vertical axis
	Pitch       float64 // degrees about the screen x axis
	Label       bool    // print the frame number
	Background  color.NRGBA
}

var (
	boneColor  = color.NRGBA{R: 90, G: 140, B: 220, A: 255}
	jointColor = color.NRGBA{R: 240, G: 160, B: 40, A: 255}
	rootColor  = color.NRGBA{R: 220, G: 50, B: 50, A: 255}
	labelColor = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
)

// Render draws frame of tr. The camera is fitted to every frame of the clip
// so a sequence of renders keeps the same framing.
func Render(m *skeleton.Model, tr *kinematics.Transforms, frame int, opts Options) (*image.NRGBA, error) {
	if frame < 0 || frame >= tr.NumFrames() {
		return nil, fmt.Errorf("preview: frame %d out of range [0,%d)", frame, tr.NumFrames())
	}
	size := opts.Size
	if size <= 0 {
		size = 512
	}
	ss := opts.Supersample
	if ss <= 0 {
		ss = 2
	}
	full := size * ss

	var all []r3.Vec
	for _, id := range m.Joints() {
		all = append(all, tr.Positions(id)...)
	}
	cam := newCamera(all, opts.Yaw, opts.Pitch, defaultFill, full)

	fb := newFrameBuffer(full, full, opts.Background)
	bone := max(1, ss)
	dot := 2 * bone

	for _, id := range m.PreOrder() {
		p := cam.project(tr.Position(id, frame))
		if parent, ok := m.Parent(id); ok {
			fb.line(cam.project(tr.Position(parent, frame)), p, bone, boneColor)
		}
	}
	for _, id := range m.PreOrder() {
		if m.IsEndSite(id) {
			continue
		}
		p := cam.project(tr.Position(id, frame))
		c := jointColor
		if id == m.Root() {
			c = rootColor
		}
		// dots sit slightly in front of the bones they join
		fb.disc(p.x, p.y, p.z+1e-6, dot, c)
	}

	img := downsample(fb.image(), size)
	if opts.Label {
		drawLabel(img, fmt.Sprintf("frame %d", frame), labelColor)
	}
	return img, nil
}
