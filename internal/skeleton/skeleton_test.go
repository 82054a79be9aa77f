package skeleton

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func rotXYZ() []Channel {
	return []Channel{{'Z', Rotation}, {'X', Rotation}, {'Y', Rotation}}
}

func sampleSpecs() []JointSpec {
	rootChannels := append([]Channel{{'X', Position}, {'Y', Position}, {'Z', Position}}, rotXYZ()...)
	return []JointSpec{
		{Name: "Hips", Offset: r3.Vec{}, Channels: rootChannels},
		{Name: "Spine", Parent: "Hips", Offset: r3.Vec{Y: 10}, Channels: rotXYZ()},
		{Name: "Head", Parent: "Spine", Offset: r3.Vec{Y: 5}, Channels: rotXYZ()},
		{Name: "Head_End", Parent: "Head", Offset: r3.Vec{Y: 2}},
		{Name: "LeftLeg", Parent: "Hips", Offset: r3.Vec{X: 1, Y: -1}, Channels: rotXYZ()},
		{Name: "LeftLeg_End", Parent: "LeftLeg", Offset: r3.Vec{Y: -4}},
	}
}

func TestValidateRejects(t *testing.T) {
	testCases := []struct {
		name  string
		specs []JointSpec
		want  error
	}{
		{
			name:  "two empty parents",
			specs: []JointSpec{{Name: "A"}, {Name: "B"}},
			want:  ErrMultipleRoots,
		},
		{
			name:  "self parent",
			specs: []JointSpec{{Name: "Root"}, {Name: "A", Parent: "A"}},
			want:  ErrSelfParent,
		},
		{
			name:  "mutual parents",
			specs: []JointSpec{{Name: "A", Parent: "B"}, {Name: "B", Parent: "A"}},
			want:  ErrCyclicRelation,
		},
		{
			name:  "unresolved parent",
			specs: []JointSpec{{Name: "Root"}, {Name: "A", Parent: "Missing"}},
			want:  ErrUnresolvedParent,
		},
		{
			name: "three hop cycle",
			specs: []JointSpec{
				{Name: "Root"},
				{Name: "A", Parent: "C"},
				{Name: "B", Parent: "A"},
				{Name: "C", Parent: "B"},
			},
			want: ErrCyclicRelation,
		},
		{
			name:  "duplicate name",
			specs: []JointSpec{{Name: "Root"}, {Name: "A", Parent: "Root"}, {Name: "A", Parent: "Root"}},
			want:  ErrDuplicateJoint,
		},
		{
			name:  "empty",
			specs: nil,
			want:  ErrEmptyHierarchy,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.specs)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error mismatch: got=%v want=%v", err, tc.want)
			}
			if !errors.Is(err, ErrMalformedHierarchy) {
				t.Fatalf("error should be a malformed hierarchy: %v", err)
			}
			if _, err := New(tc.specs); !errors.Is(err, tc.want) {
				t.Fatalf("New should reject too: %v", err)
			}
		})
	}
}

func TestValidateNoRoot(t *testing.T) {
	specs := []JointSpec{{Name: "A", Parent: "C"}, {Name: "B", Parent: "A"}, {Name: "C", Parent: "B"}}
	err := Validate(specs)
	if !errors.Is(err, ErrNoRootFound) {
		t.Fatalf("error mismatch: got=%v want=%v", err, ErrNoRootFound)
	}
}

func TestModelAccessors(t *testing.T) {
	m, err := New(sampleSpecs())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if m.Len() != 6 {
		t.Fatalf("joint count mismatch: got=%d want=6", m.Len())
	}
	if m.Name(m.Root()) != "Hips" {
		t.Fatalf("root mismatch: got=%s", m.Name(m.Root()))
	}
	if _, ok := m.Parent(m.Root()); ok {
		t.Fatalf("root should have no parent")
	}

	spine, ok := m.Lookup("Spine")
	if !ok {
		t.Fatalf("Spine not found")
	}
	children := m.Children(spine)
	if len(children) != 1 || m.Name(children[0]) != "Head" {
		t.Fatalf("Spine children mismatch: %v", children)
	}

	hips := m.Children(m.Root())
	if len(hips) != 2 || m.Name(hips[0]) != "Spine" || m.Name(hips[1]) != "LeftLeg" {
		t.Fatalf("root children order mismatch: %v", hips)
	}

	if m.ChannelCount() != 6+3+3+3 {
		t.Fatalf("channel count mismatch: got=%d", m.ChannelCount())
	}
	leg, _ := m.Lookup("LeftLeg")
	if got := m.ChannelIndex(leg); got != 12 {
		t.Fatalf("LeftLeg channel index mismatch: got=%d want=12", got)
	}
	end, _ := m.Lookup("Head_End")
	if !m.IsEndSite(end) || m.IsEndSite(spine) {
		t.Fatalf("end site detection mismatch")
	}

	channels := m.Channels(spine)
	channels[0] = Channel{'X', Position}
	if m.Channels(spine)[0] != (Channel{'Z', Rotation}) {
		t.Fatalf("Channels must return a copy")
	}
}

func TestDepthFollowsParents(t *testing.T) {
	m, err := New(sampleSpecs())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if m.Depth(m.Root()) != 0 {
		t.Fatalf("root depth mismatch: got=%d", m.Depth(m.Root()))
	}
	for _, id := range m.Joints() {
		parent, ok := m.Parent(id)
		if !ok {
			continue
		}
		if m.Depth(id) != m.Depth(parent)+1 {
			t.Fatalf("depth of %s mismatch: got=%d parent=%d", m.Name(id), m.Depth(id), m.Depth(parent))
		}
	}
}

func TestPreOrderParentsFirst(t *testing.T) {
	specs := []JointSpec{
		{Name: "Leaf", Parent: "Mid"},
		{Name: "Mid", Parent: "Root", Channels: rotXYZ()},
		{Name: "Root", Channels: []Channel{{'X', Position}, {'Y', Position}, {'Z', Position}}},
	}
	m, err := New(specs)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var names []string
	for _, id := range m.PreOrder() {
		names = append(names, m.Name(id))
	}
	want := []string{"Root", "Mid", "Leaf"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("pre-order mismatch: got=%v want=%v", names, want)
		}
	}
}

func TestDuplicateChannelRejected(t *testing.T) {
	specs := []JointSpec{{Name: "Root", Channels: []Channel{{'X', Rotation}, {'X', Rotation}}}}
	if _, err := New(specs); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("error mismatch: got=%v want=%v", err, ErrDimensionMismatch)
	}
}

func TestParseChannel(t *testing.T) {
	testCases := []struct {
		token string
		want  Channel
		ok    bool
	}{
		{token: "Xposition", want: Channel{'X', Position}, ok: true},
		{token: "zrotation", want: Channel{'Z', Rotation}, ok: true},
		{token: "Yrotation", want: Channel{'Y', Rotation}, ok: true},
		{token: "Wrotation", ok: false},
		{token: "Xscale", ok: false},
		{token: "X", ok: false},
	}
	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			got, err := ParseChannel(tc.token)
			if (err == nil) != tc.ok {
				t.Fatalf("parse result mismatch: err=%v ok=%t", err, tc.ok)
			}
			if tc.ok && got != tc.want {
				t.Fatalf("channel mismatch: got=%v want=%v", got, tc.want)
			}
		})
	}
	if (Channel{'Y', Rotation}).String() != "Yrotation" || (Channel{'Y', Rotation}).Column() != "y" {
		t.Fatalf("channel formatting mismatch")
	}
}

func TestRotationIndices(t *testing.T) {
	var channels []Channel
	for _, tok := range []string{"Xposition", "Zrotation", "Yposition", "Xrotation", "Yrotation"} {
		ch, err := ParseChannel(tok)
		if err != nil {
			t.Fatalf("parse %s: %v", tok, err)
		}
		channels = append(channels, ch)
	}
	got := RotationIndices(channels)
	if len(got) != 3 || got[0] != 1 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("indices mismatch: got=%v want=[1 3 4]", got)
	}
	if got := RotationIndices(nil); len(got) != 0 {
		t.Fatalf("empty channels: got=%v", got)
	}
}

func TestMotionCheck(t *testing.T) {
	m, err := New(sampleSpecs())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ok := Motion{FrameTime: 0.1, Frames: [][]float64{make([]float64, m.ChannelCount())}}
	if err := ok.Check(m); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	bad := Motion{FrameTime: 0.1, Frames: [][]float64{make([]float64, m.ChannelCount()-1)}}
	if err := bad.Check(m); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("error mismatch: got=%v want=%v", err, ErrDimensionMismatch)
	}
}
