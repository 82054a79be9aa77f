package skeleton

import "fmt"

// Motion is the per-frame channel table of a clip. Each row holds one value
// per declared channel of the model, joints in declaration order.
type Motion struct {
	FrameTime float64
	Frames    [][]float64
}

// NumFrames returns the number of rows.
func (mo Motion) NumFrames() int { return len(mo.Frames) }

// Check verifies that every row has exactly one value per model channel.
func (mo Motion) Check(m *Model) error {
	for i, row := range mo.Frames {
		if len(row) != m.ChannelCount() {
			return fmt.Errorf("skeleton: frame %d has %d values, model declares %d channels: %w",
				i, len(row), m.ChannelCount(), ErrDimensionMismatch)
		}
	}
	return nil
}

// JointValues returns the slice of frame values belonging to the joint's channels.
// The returned slice aliases the frame row.
func (mo Motion) JointValues(m *Model, id JointID, frame int) []float64 {
	start := m.ChannelIndex(id)
	return mo.Frames[frame][start : start+len(m.joints[id].channels)]
}
