package table

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"mocap-bvh-csv/internal/skeleton"
)

// Decode rebuilds a hierarchy and its motion from the hierarchy rows, the
// rotation table and the position table. Offsets and root positions are
// multiplied by scale (zero means 1).
//
// Every joint with children takes its rotation channels from the rotation
// columns named after it, in column order; a joint without children and
// without columns becomes an end site. The root additionally takes X/Y/Z
// position channels from the position table. Motion rows are assembled by
// column name, so the column order of the incoming tables does not matter
// beyond the rotation order of each joint.
func Decode(rows []HierarchyRow, rot, pos Table, scale float64) (*skeleton.Model, skeleton.Motion, error) {
	var motion skeleton.Motion
	if scale == 0 {
		scale = 1
	}

	specs := make([]skeleton.JointSpec, len(rows))
	index := make(map[string]int, len(rows))
	hasChildren := make(map[string]bool, len(rows))
	root := -1
	for i, r := range rows {
		specs[i] = skeleton.JointSpec{Name: r.Joint, Parent: r.Parent, Offset: r3.Scale(scale, r.Offset)}
		index[r.Joint] = i
		if r.Parent == "" {
			root = i
		} else {
			hasChildren[r.Parent] = true
		}
	}
	if err := skeleton.Validate(specs); err != nil {
		return nil, motion, fmt.Errorf("table: %w", err)
	}

	rotCols, err := assignRotations(specs, index, hasChildren, rot)
	if err != nil {
		return nil, motion, err
	}

	rootName := specs[root].Name
	var posCols [3]int
	for k, axis := range []string{"x", "y", "z"} {
		c, ok := pos.Column(rootName + "." + axis)
		if !ok {
			return nil, motion, fmt.Errorf("table: root %q has no %s column: %w: %w",
				rootName, axis, skeleton.ErrMissingChannelData, skeleton.ErrRootPositionMissing)
		}
		posCols[k] = c
	}
	specs[root].Channels = append([]skeleton.Channel{
		{Axis: 'X', Kind: skeleton.Position},
		{Axis: 'Y', Kind: skeleton.Position},
		{Axis: 'Z', Kind: skeleton.Position},
	}, specs[root].Channels...)

	n := rot.NumRows()
	if pos.NumRows() != n {
		return nil, motion, fmt.Errorf("table: %d rotation rows, %d position rows: %w",
			n, pos.NumRows(), skeleton.ErrFrameCountMismatch)
	}
	if n < 2 {
		return nil, motion, fmt.Errorf("table: %d frames cannot define a frame time: %w",
			n, skeleton.ErrDegenerateTimeSeries)
	}
	if err := checkRows(rot); err != nil {
		return nil, motion, err
	}
	if err := checkRows(pos); err != nil {
		return nil, motion, err
	}

	model, err := skeleton.New(specs)
	if err != nil {
		return nil, motion, fmt.Errorf("table: %w", err)
	}

	motion.FrameTime = rot.Rows[n-1][0] / float64(n-1)
	motion.Frames = make([][]float64, n)
	for f := range motion.Frames {
		row := make([]float64, 0, model.ChannelCount())
		for i, s := range specs {
			if i == root {
				for _, c := range posCols {
					row = append(row, pos.Rows[f][c]*scale)
				}
			}
			for _, c := range rotCols[s.Name] {
				row = append(row, rot.Rows[f][c])
			}
		}
		motion.Frames[f] = row
	}
	return model, motion, nil
}

// assignRotations appends a rotation channel to specs for every rotation
// column and returns the columns per joint in channel order.
func assignRotations(specs []skeleton.JointSpec, index map[string]int, hasChildren map[string]bool, rot Table) (map[string][]int, error) {
	if len(rot.Header) == 0 || rot.Header[0] != TimeColumn {
		return nil, fmt.Errorf("%w: rotation table must start with %q", ErrMalformedTable, TimeColumn)
	}

	cols := make(map[string][]int)
	for c := 1; c < len(rot.Header); c++ {
		h := rot.Header[c]
		joint, axis, ok := strings.Cut(h, ".")
		if !ok || len(axis) != 1 {
			return nil, fmt.Errorf("%w: rotation column %q is not <joint>.<axis>", ErrMalformedTable, h)
		}
		ch, err := skeleton.ParseChannel(strings.ToUpper(axis) + "rotation")
		if err != nil {
			return nil, fmt.Errorf("%w: rotation column %q: %v", ErrMalformedTable, h, err)
		}
		i, ok := index[joint]
		if !ok {
			return nil, fmt.Errorf("table: rotation column %q names a joint missing from the hierarchy: %w",
				h, skeleton.ErrDimensionMismatch)
		}
		if !hasChildren[joint] {
			return nil, fmt.Errorf("table: rotation column %q belongs to joint without children: %w",
				h, skeleton.ErrDimensionMismatch)
		}
		specs[i].Channels = append(specs[i].Channels, ch)
		cols[joint] = append(cols[joint], c)
	}

	for _, s := range specs {
		if hasChildren[s.Name] && len(cols[s.Name]) == 0 {
			return nil, fmt.Errorf("table: joint %q: %w: %w",
				s.Name, skeleton.ErrMissingChannelData, skeleton.ErrMissingRotationData)
		}
	}
	return cols, nil
}

func checkRows(t Table) error {
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("%w: row %d has %d values for %d columns",
				ErrMalformedTable, i, len(row), len(t.Header))
		}
	}
	return nil
}
