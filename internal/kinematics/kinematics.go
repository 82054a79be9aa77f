// Package kinematics computes per-frame world transforms of a joint
// hierarchy by forward kinematics.
package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"mocap-bvh-csv/internal/mathutil"
	"mocap-bvh-csv/internal/skeleton"
)

// Options controls Compute.
type Options struct {
	// Scale multiplies the translation of every world transform after
	// composition. Zero means 1.
	Scale float64
}

// Transforms holds world matrices indexed by [joint][frame]. Translations are
// already scaled.
type Transforms struct {
	model  *skeleton.Model
	frames int
	world  [][]mathutil.Mat4
}

// Compute walks the hierarchy parent-before-child and composes, for every
// frame, world = parentWorld × local. The local rotation of a joint is the
// product of its rotation channels in declared order. The root takes its
// translation from its position channels; every other joint (end sites
// included) from its fixed offset.
func Compute(model *skeleton.Model, motion skeleton.Motion, opts Options) (*Transforms, error) {
	if err := motion.Check(model); err != nil {
		return nil, fmt.Errorf("kinematics: %w", err)
	}
	rootPos, err := rootPositionColumns(model)
	if err != nil {
		return nil, err
	}

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	n := motion.NumFrames()
	unscaled := make([][]mathutil.Mat4, model.Len())
	for _, id := range model.PreOrder() {
		channels := model.Channels(id)
		start := model.ChannelIndex(id)
		parent, hasParent := model.Parent(id)

		worlds := make([]mathutil.Mat4, n)
		for f := 0; f < n; f++ {
			values := motion.Frames[f][start : start+len(channels)]
			rot := EulerMatrix(channels, values)

			var local mathutil.Mat4
			if hasParent {
				local = mathutil.FromMat3Translation(rot, model.Offset(id))
				worlds[f] = mathutil.Mat4Mul(unscaled[parent][f], local)
			} else {
				row := motion.Frames[f]
				t := r3.Vec{X: row[rootPos[0]], Y: row[rootPos[1]], Z: row[rootPos[2]]}
				worlds[f] = mathutil.FromMat3Translation(rot, t)
			}
		}
		unscaled[id] = worlds
	}

	world := make([][]mathutil.Mat4, model.Len())
	for id, frames := range unscaled {
		scaled := make([]mathutil.Mat4, n)
		for f, m := range frames {
			scaled[f] = m.ScaleTranslation(scale)
		}
		world[id] = scaled
	}
	return &Transforms{model: model, frames: n, world: world}, nil
}

// EulerMatrix composes R = R(c1) · R(c2) · ... over the rotation channels in
// declared order. Values are degrees, aligned with channels; position
// channels are skipped.
func EulerMatrix(channels []skeleton.Channel, values []float64) mathutil.Mat3 {
	rot := mathutil.Mat3Identity()
	for i, ch := range channels {
		if ch.Kind != skeleton.Rotation {
			continue
		}
		rot = mathutil.Mat3Mul(rot, mathutil.RotAxis(ch.Axis, mathutil.Deg2Rad(values[i])))
	}
	return rot
}

// rootPositionColumns returns the motion-row columns of the root's X, Y and Z
// position channels.
func rootPositionColumns(model *skeleton.Model) ([3]int, error) {
	root := model.Root()
	cols := [3]int{-1, -1, -1}
	for i, ch := range model.Channels(root) {
		if ch.Kind != skeleton.Position {
			continue
		}
		cols[ch.Axis-'X'] = model.ChannelIndex(root) + i
	}
	for _, c := range cols {
		if c < 0 {
			return cols, fmt.Errorf("kinematics: root %q: %w: %w",
				model.Name(root), skeleton.ErrMissingChannelData, skeleton.ErrMissingRootChannels)
		}
	}
	return cols, nil
}

// NumFrames returns the number of frames computed.
func (t *Transforms) NumFrames() int { return t.frames }

// World returns the world matrix of a joint at a frame.
func (t *Transforms) World(id skeleton.JointID, frame int) mathutil.Mat4 {
	return t.world[id][frame]
}

// Position returns the world-space translation of a joint at a frame.
func (t *Transforms) Position(id skeleton.JointID, frame int) r3.Vec {
	return t.world[id][frame].Translation()
}

// Positions returns the translation of every frame for one joint.
func (t *Transforms) Positions(id skeleton.JointID) []r3.Vec {
	out := make([]r3.Vec, t.frames)
	for f := range out {
		out[f] = t.world[id][f].Translation()
	}
	return out
}
