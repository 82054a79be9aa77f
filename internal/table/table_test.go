package table

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"mocap-bvh-csv/internal/bvh"
	"mocap-bvh-csv/internal/kinematics"
	"mocap-bvh-csv/internal/skeleton"
)

const sample = `HIERARCHY
ROOT Hips
{
  OFFSET 0 0 0
  CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation
  JOINT Spine
  {
    OFFSET 0 10 0
    CHANNELS 3 Zrotation Xrotation Yrotation
    End Site
    {
      OFFSET 0 5 0
    }
  }
}
MOTION
Frames: 3
Frame Time: 0.1
1 2 3 0 0 0 0 0 0
1 2 3 10 0 0 0 0 0
1 2 3 20 0 0 45 0 0
`

func parseSample(t *testing.T) *bvh.Document {
	t.Helper()
	doc, err := bvh.Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestRotationTable(t *testing.T) {
	doc := parseSample(t)
	tab := RotationTable(doc.Model, doc.Motion)

	want := []string{"time", "Hips.z", "Hips.x", "Hips.y", "Spine.z", "Spine.x", "Spine.y"}
	if strings.Join(tab.Header, ",") != strings.Join(want, ",") {
		t.Fatalf("header mismatch: got=%v want=%v", tab.Header, want)
	}
	if tab.NumRows() != 3 {
		t.Fatalf("rows mismatch: got=%d", tab.NumRows())
	}
	if got := tab.Rows[2][0]; math.Abs(got-0.2) > 1e-12 {
		t.Fatalf("time mismatch: got=%v want=0.2", got)
	}
	if got := tab.Rows[2][4]; got != 45 {
		t.Fatalf("Spine.z mismatch: got=%v want=45", got)
	}
}

func TestPositionTable(t *testing.T) {
	doc := parseSample(t)
	tr, err := kinematics.Compute(doc.Model, doc.Motion, kinematics.Options{Scale: 1})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	with := PositionTable(doc.Model, tr, doc.Motion.FrameTime, true)
	without := PositionTable(doc.Model, tr, doc.Motion.FrameTime, false)
	if len(with.Header) != 10 || len(without.Header) != 7 {
		t.Fatalf("header width mismatch: with=%d without=%d", len(with.Header), len(without.Header))
	}

	c, ok := with.Column("Spine_End.y")
	if !ok {
		t.Fatalf("Spine_End.y column missing: %v", with.Header)
	}
	if got := with.Rows[0][c]; math.Abs(got-17) > 1e-9 {
		t.Fatalf("end site y mismatch: got=%v want=17", got)
	}
	c, _ = with.Column("Hips.x")
	if got := with.Rows[1][c]; got != 1 {
		t.Fatalf("root x mismatch: got=%v want=1", got)
	}
}

func TestHierarchyRows(t *testing.T) {
	doc := parseSample(t)

	rows := HierarchyRows(doc.Model, 2)
	if len(rows) != 3 {
		t.Fatalf("rows mismatch: got=%d want=3", len(rows))
	}
	if rows[0].Parent != "" || rows[2].Parent != "Spine" {
		t.Fatalf("parents mismatch: %+v", rows)
	}
	if rows[1].Offset != (r3.Vec{Y: 20}) {
		t.Fatalf("scaled offset mismatch: got=%v", rows[1].Offset)
	}
	if end, ok := doc.Model.Lookup(rows[2].Joint); !ok || !doc.Model.IsEndSite(end) {
		t.Fatalf("end site row missing: %+v", rows[2])
	}
}

func TestWriteTable(t *testing.T) {
	tab := Table{Header: []string{"time", "Hips.x"}, Rows: [][]float64{{0, 1.5}, {0.1, -2}}}
	var buf bytes.Buffer
	if err := WriteTable(&buf, tab, 3); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "time,Hips.x\n0.000,1.500\n0.100,-2.000\n"
	if buf.String() != want {
		t.Fatalf("csv mismatch: got=%q want=%q", buf.String(), want)
	}

	got, err := ReadTable(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Rows[1][1] != -2 {
		t.Fatalf("value mismatch: got=%v", got.Rows[1][1])
	}
}

func TestReadTableErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"non-numeric", "time,Hips.x\n0,abc\n"},
		{"empty cell", "time,Hips.x\n0,\n"},
		{"ragged", "time,Hips.x\n0,1,2\n"},
		{"no time column", "Hips.x,Hips.y\n0,1\n"},
		{"repeated column", "time,Hips.x,Hips.x\n0,1,2\n"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.text))
			if !errors.Is(err, ErrMalformedTable) {
				t.Fatalf("error mismatch: got=%v", err)
			}
		})
	}
}

func TestReadTableTrimsSpaces(t *testing.T) {
	tab, err := ReadTable(strings.NewReader("time, Hips.x\n   0.00000,   1.25000\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, ok := tab.Column("Hips.x"); !ok || tab.Rows[0][1] != 1.25 {
		t.Fatalf("trim mismatch: %+v", tab)
	}
}

func TestHierarchyCSV(t *testing.T) {
	rows := []HierarchyRow{
		{Joint: "Hips"},
		{Joint: "Spine", Parent: "Hips", Offset: r3.Vec{Y: 10.5}},
	}
	var buf bytes.Buffer
	if err := WriteHierarchy(&buf, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "joint,parent,offset.x,offset.y,offset.z\n" +
		"Hips,,0.000000,0.000000,0.000000\n" +
		"Spine,Hips,0.000000,10.500000,0.000000\n"
	if buf.String() != want {
		t.Fatalf("csv mismatch: got=%q", buf.String())
	}

	got, err := ReadHierarchy(strings.NewReader("Joint,Parent,offsetx,offsety,offsetz\nHips,,0,0,0\nSpine,Hips,0,10.5,0\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[1] != rows[1] {
		t.Fatalf("rows mismatch: got=%+v", got)
	}

	if _, err := ReadHierarchy(strings.NewReader("joint,parent,offset.x\nHips,,0\n")); !errors.Is(err, ErrMalformedTable) {
		t.Fatalf("missing column error mismatch: got=%v", err)
	}
	if _, err := ReadHierarchy(strings.NewReader("joint,parent,offset.x,offset.y,offset.z\nHips,,0,x,0\n")); !errors.Is(err, ErrMalformedTable) {
		t.Fatalf("non-numeric error mismatch: got=%v", err)
	}
}

func decodeFixture() ([]HierarchyRow, Table, Table) {
	rows := []HierarchyRow{
		{Joint: "Hips"},
		{Joint: "Spine", Parent: "Hips", Offset: r3.Vec{Y: 10}},
		{Joint: "Spine_End", Parent: "Spine", Offset: r3.Vec{Y: 5}},
	}
	rot := Table{
		Header: []string{"time", "Spine.y", "Hips.z", "Hips.x", "Spine.x"},
		Rows:   [][]float64{{0, 1, 2, 3, 4}, {0.1, 5, 6, 7, 8}, {0.2, 9, 10, 11, 12}},
	}
	pos := Table{
		Header: []string{"time", "Hips.z", "Hips.y", "Hips.x", "Spine.x"},
		Rows:   [][]float64{{0, 3, 2, 1, 0}, {0.1, 6, 5, 4, 0}, {0.2, 9, 8, 7, 0}},
	}
	return rows, rot, pos
}

func TestDecode(t *testing.T) {
	rows, rot, pos := decodeFixture()
	m, motion, err := Decode(rows, rot, pos, 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if motion.FrameTime != 0.1 {
		t.Fatalf("frame time mismatch: got=%v want=0.1", motion.FrameTime)
	}
	hips, _ := m.Lookup("Hips")
	spine, _ := m.Lookup("Spine")
	end, _ := m.Lookup("Spine_End")

	var tokens []string
	for _, ch := range m.Channels(hips) {
		tokens = append(tokens, ch.String())
	}
	if got := strings.Join(tokens, " "); got != "Xposition Yposition Zposition Zrotation Xrotation" {
		t.Fatalf("root channels mismatch: got=%s", got)
	}
	if !m.IsEndSite(end) {
		t.Fatalf("Spine_End should be an end site")
	}
	if m.Offset(spine) != (r3.Vec{Y: 20}) {
		t.Fatalf("offset not scaled: got=%v", m.Offset(spine))
	}

	// root positions scaled and looked up by name, rotations in column order
	want := []float64{8, 10, 12, 6, 7, 5, 8}
	got := motion.Frames[1]
	if len(got) != len(want) {
		t.Fatalf("row width mismatch: got=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row mismatch: got=%v want=%v", got, want)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rows []HierarchyRow, rot, pos *Table) []HierarchyRow
		want   []error
	}{
		{
			name: "missing rotation data",
			mutate: func(rows []HierarchyRow, rot, pos *Table) []HierarchyRow {
				rot.Header = []string{"time", "Hips.z", "Hips.x", "Hips.y"}
				rot.Rows = [][]float64{{0, 1, 2, 3}, {0.1, 1, 2, 3}, {0.2, 1, 2, 3}}
				return rows
			},
			want: []error{skeleton.ErrMissingChannelData, skeleton.ErrMissingRotationData},
		},
		{
			name: "root position missing",
			mutate: func(rows []HierarchyRow, rot, pos *Table) []HierarchyRow {
				pos.Header = []string{"time", "Spine.z", "Spine.y", "Spine.x", "Spine.w"}
				return rows
			},
			want: []error{skeleton.ErrMissingChannelData, skeleton.ErrRootPositionMissing},
		},
		{
			name: "frame count mismatch",
			mutate: func(rows []HierarchyRow, rot, pos *Table) []HierarchyRow {
				pos.Rows = pos.Rows[:2]
				return rows
			},
			want: []error{skeleton.ErrFrameCountMismatch},
		},
		{
			name: "single frame",
			mutate: func(rows []HierarchyRow, rot, pos *Table) []HierarchyRow {
				rot.Rows = rot.Rows[:1]
				pos.Rows = pos.Rows[:1]
				return rows
			},
			want: []error{skeleton.ErrDegenerateTimeSeries},
		},
		{
			name: "column for unknown joint",
			mutate: func(rows []HierarchyRow, rot, pos *Table) []HierarchyRow {
				rot.Header[1] = "Neck.y"
				return rows
			},
			want: []error{skeleton.ErrDimensionMismatch},
		},
		{
			name: "column for joint without children",
			mutate: func(rows []HierarchyRow, rot, pos *Table) []HierarchyRow {
				rot.Header[1] = "Spine_End.y"
				return rows
			},
			want: []error{skeleton.ErrDimensionMismatch},
		},
		{
			name: "bad column name",
			mutate: func(rows []HierarchyRow, rot, pos *Table) []HierarchyRow {
				rot.Header[1] = "Spine"
				return rows
			},
			want: []error{ErrMalformedTable},
		},
		{
			name: "two roots",
			mutate: func(rows []HierarchyRow, rot, pos *Table) []HierarchyRow {
				return append(rows, HierarchyRow{Joint: "Other"})
			},
			want: []error{skeleton.ErrMalformedHierarchy, skeleton.ErrMultipleRoots},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, rot, pos := decodeFixture()
			rows = tt.mutate(rows, &rot, &pos)
			_, _, err := Decode(rows, rot, pos, 1)
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Fatalf("error mismatch: got=%v want=%v", err, want)
				}
			}
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	doc := parseSample(t)
	tr, err := kinematics.Compute(doc.Model, doc.Motion, kinematics.Options{Scale: 1})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	m, motion, err := Decode(
		HierarchyRows(doc.Model, 1),
		RotationTable(doc.Model, doc.Motion),
		PositionTable(doc.Model, tr, doc.Motion.FrameTime, false),
		1,
	)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ChannelCount() != doc.Model.ChannelCount() {
		t.Fatalf("channel count mismatch: got=%d want=%d", m.ChannelCount(), doc.Model.ChannelCount())
	}
	if math.Abs(motion.FrameTime-doc.Motion.FrameTime) > 1e-12 {
		t.Fatalf("frame time mismatch: got=%v want=%v", motion.FrameTime, doc.Motion.FrameTime)
	}
	for f := range doc.Motion.Frames {
		for c, v := range doc.Motion.Frames[f] {
			if math.Abs(motion.Frames[f][c]-v) > 1e-9 {
				t.Fatalf("value %d/%d mismatch: got=%v want=%v", f, c, motion.Frames[f][c], v)
			}
		}
	}
}
