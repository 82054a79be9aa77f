package table

import (
	"gonum.org/v1/gonum/spatial/r3"

	"mocap-bvh-csv/internal/kinematics"
	"mocap-bvh-csv/internal/skeleton"
)

// RotationTable lays out the raw rotation channel values: a time column, then
// "<joint>.<axis>" for every rotation channel, joints in pre-order and
// channels in declared order.
func RotationTable(m *skeleton.Model, motion skeleton.Motion) Table {
	header := []string{TimeColumn}
	var cols []int
	for _, id := range m.PreOrder() {
		base, channels := m.ChannelIndex(id), m.Channels(id)
		for _, i := range skeleton.RotationIndices(channels) {
			header = append(header, m.Name(id)+"."+channels[i].Column())
			cols = append(cols, base+i)
		}
	}

	rows := make([][]float64, motion.NumFrames())
	for f, frame := range motion.Frames {
		row := make([]float64, 0, len(header))
		row = append(row, float64(f)*motion.FrameTime)
		for _, c := range cols {
			row = append(row, frame[c])
		}
		rows[f] = row
	}
	return Table{Header: header, Rows: rows}
}

// PositionTable lays out world positions: a time column, then
// "<joint>.x/.y/.z" per joint in pre-order. End sites are skipped unless
// endSites is set. Positions come from tr and are already scaled.
func PositionTable(m *skeleton.Model, tr *kinematics.Transforms, frameTime float64, endSites bool) Table {
	header := []string{TimeColumn}
	var ids []skeleton.JointID
	for _, id := range m.PreOrder() {
		if !endSites && m.IsEndSite(id) {
			continue
		}
		name := m.Name(id)
		header = append(header, name+".x", name+".y", name+".z")
		ids = append(ids, id)
	}

	rows := make([][]float64, tr.NumFrames())
	for f := range rows {
		row := make([]float64, 0, len(header))
		row = append(row, float64(f)*frameTime)
		for _, id := range ids {
			p := tr.Position(id, f)
			row = append(row, p.X, p.Y, p.Z)
		}
		rows[f] = row
	}
	return Table{Header: header, Rows: rows}
}

// HierarchyRows lists every joint, end sites included, in pre-order with
// offsets multiplied by scale. Zero scale means 1. End sites are always kept:
// without them a joint that only ends in an end site reads back as a leaf.
func HierarchyRows(m *skeleton.Model, scale float64) []HierarchyRow {
	if scale == 0 {
		scale = 1
	}
	var rows []HierarchyRow
	for _, id := range m.PreOrder() {
		parent := ""
		if p, ok := m.Parent(id); ok {
			parent = m.Name(p)
		}
		rows = append(rows, HierarchyRow{
			Joint:  m.Name(id),
			Parent: parent,
			Offset: r3.Scale(scale, m.Offset(id)),
		})
	}
	return rows
}
