package skeleton

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// JointID addresses a joint inside its Model. IDs follow declaration order.
type JointID int

// NoJoint is the parent of the root.
const NoJoint JointID = -1

// JointSpec describes one joint handed to New. Parent is the parent's name,
// empty for the root.
type JointSpec struct {
	Name     string
	Parent   string
	Offset   r3.Vec
	Channels []Channel
}

type joint struct {
	name     string
	parent   JointID
	offset   r3.Vec
	channels []Channel
	children []JointID
	column   int
}

// Model is an immutable joint hierarchy stored as an arena. Parent and child
// links are JointIDs, so there are no pointer cycles, and every accessor hands
// out copies. A validated Model may be shared between goroutines.
type Model struct {
	joints []joint
	byName map[string]JointID
	root   JointID
	width  int
}

// New validates specs and builds a Model from them. Declaration order is
// preserved: it is the order joints are emitted in hierarchy text and the
// order of their channel values in a motion row.
func New(specs []JointSpec) (*Model, error) {
	if err := Validate(specs); err != nil {
		return nil, err
	}

	m := &Model{
		joints: make([]joint, len(specs)),
		byName: make(map[string]JointID, len(specs)),
		root:   NoJoint,
	}
	for i, s := range specs {
		m.byName[s.Name] = JointID(i)
	}
	for i, s := range specs {
		if err := checkChannels(s); err != nil {
			return nil, err
		}
		parent := NoJoint
		if s.Parent != "" {
			parent = m.byName[s.Parent]
		} else {
			m.root = JointID(i)
		}
		m.joints[i] = joint{
			name:     s.Name,
			parent:   parent,
			offset:   s.Offset,
			channels: append([]Channel(nil), s.Channels...),
			column:   m.width,
		}
		m.width += len(s.Channels)
	}
	for i := range m.joints {
		if p := m.joints[i].parent; p != NoJoint {
			m.joints[p].children = append(m.joints[p].children, JointID(i))
		}
	}
	return m, nil
}

func checkChannels(s JointSpec) error {
	seen := make(map[Channel]bool, len(s.Channels))
	for _, ch := range s.Channels {
		if seen[ch] {
			return fmt.Errorf("skeleton: joint %q declares %s twice: %w", s.Name, ch, ErrDimensionMismatch)
		}
		seen[ch] = true
	}
	return nil
}

// Len returns the number of joints, end sites included.
func (m *Model) Len() int { return len(m.joints) }

// Root returns the root joint.
func (m *Model) Root() JointID { return m.root }

// Lookup finds a joint by name.
func (m *Model) Lookup(name string) (JointID, bool) {
	id, ok := m.byName[name]
	return id, ok
}

func (m *Model) Name(id JointID) string { return m.joints[id].name }

func (m *Model) Offset(id JointID) r3.Vec { return m.joints[id].offset }

// Parent returns the joint's parent; ok is false for the root.
func (m *Model) Parent(id JointID) (JointID, bool) {
	p := m.joints[id].parent
	return p, p != NoJoint
}

// Children returns the direct children in declaration order.
func (m *Model) Children(id JointID) []JointID {
	return append([]JointID(nil), m.joints[id].children...)
}

// Channels returns the declared channels in order.
func (m *Model) Channels(id JointID) []Channel {
	return append([]Channel(nil), m.joints[id].channels...)
}

// IsEndSite reports whether the joint is a bone tip: no children, no channels.
func (m *Model) IsEndSite(id JointID) bool {
	j := m.joints[id]
	return len(j.children) == 0 && len(j.channels) == 0
}

// Depth is the number of parent hops to the root. It is recomputed on every
// call; the model never changes after New.
func (m *Model) Depth(id JointID) int {
	depth := 0
	for p := m.joints[id].parent; p != NoJoint; p = m.joints[p].parent {
		depth++
	}
	return depth
}

// Joints returns every joint in declaration order.
func (m *Model) Joints() []JointID {
	ids := make([]JointID, len(m.joints))
	for i := range ids {
		ids[i] = JointID(i)
	}
	return ids
}

// PreOrder returns the joints depth-first from the root, children in
// declaration order. Every parent precedes its descendants.
func (m *Model) PreOrder() []JointID {
	order := make([]JointID, 0, len(m.joints))
	stack := []JointID{m.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)
		children := m.joints[id].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return order
}

// ChannelCount is the width of one motion row.
func (m *Model) ChannelCount() int { return m.width }

// ChannelIndex returns the motion-row column of the joint's first channel.
func (m *Model) ChannelIndex(id JointID) int { return m.joints[id].column }

// Specs returns the joint list the model was built from.
func (m *Model) Specs() []JointSpec {
	specs := make([]JointSpec, len(m.joints))
	for i, j := range m.joints {
		parent := ""
		if j.parent != NoJoint {
			parent = m.joints[j.parent].name
		}
		specs[i] = JointSpec{
			Name:     j.name,
			Parent:   parent,
			Offset:   j.offset,
			Channels: append([]Channel(nil), j.channels...),
		}
	}
	return specs
}
