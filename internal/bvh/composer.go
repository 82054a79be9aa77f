package bvh

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"mocap-bvh-csv/internal/skeleton"
)

// Options controls number formatting of composed text.
type Options struct {
	// Precision is the number of decimals per motion value. Zero selects
	// DefaultPrecision; pass a negative value for zero decimals.
	Precision int
}

func (o Options) precision() int {
	switch {
	case o.Precision == 0:
		return DefaultPrecision
	case o.Precision < 0:
		return 0
	}
	return o.Precision
}

// WriteFile composes doc into a buffer and writes it to path. Nothing is
// written when composition fails.
func WriteFile(path string, doc *Document, opts Options) error {
	var buf bytes.Buffer
	if err := Write(&buf, doc, opts); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("bvh: mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("bvh: write %s: %w", path, err)
	}
	return nil
}

// Write emits the hierarchy section followed by the motion section.
func Write(w io.Writer, doc *Document, opts Options) error {
	bw := bufio.NewWriter(w)
	if err := WriteHierarchy(bw, doc.Model); err != nil {
		return err
	}
	if err := WriteMotion(bw, doc.Model, doc.Motion, opts); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteHierarchy emits the HIERARCHY section for the joints in declaration
// order. The listing must be a pre-order walk: every joint has to follow its
// parent's open scope, otherwise ErrMalformedHierarchy is returned.
func WriteHierarchy(w io.Writer, m *skeleton.Model) error {
	var sb strings.Builder
	sb.WriteString("HIERARCHY\n")

	// stack[d] is the open joint at depth d.
	var stack []skeleton.JointID
	for _, id := range m.Joints() {
		depth := m.Depth(id)
		for len(stack) > depth {
			stack = stack[:len(stack)-1]
			closeScope(&sb, len(stack))
		}
		if len(stack) != depth {
			return outOfOrder(m, id)
		}
		if parent, ok := m.Parent(id); ok && stack[depth-1] != parent {
			return outOfOrder(m, id)
		}

		pad := indent(depth)
		switch {
		case depth == 0:
			fmt.Fprintf(&sb, "%sROOT %s\n", pad, m.Name(id))
		case m.IsEndSite(id):
			fmt.Fprintf(&sb, "%sEnd Site\n", pad)
		default:
			fmt.Fprintf(&sb, "%sJOINT %s\n", pad, m.Name(id))
		}
		fmt.Fprintf(&sb, "%s{\n", pad)
		fmt.Fprintf(&sb, "%s  OFFSET %s\n", pad, formatOffset(m.Offset(id)))

		if depth > 0 && m.IsEndSite(id) {
			closeScope(&sb, depth)
			continue
		}
		fmt.Fprintf(&sb, "%s  CHANNELS %s\n", pad, formatChannels(m.Channels(id)))
		stack = append(stack, id)
	}
	for len(stack) > 0 {
		stack = stack[:len(stack)-1]
		closeScope(&sb, len(stack))
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("bvh: write hierarchy: %w", err)
	}
	return nil
}

// WriteMotion emits the MOTION section: frame count, frame time and one line
// per frame.
func WriteMotion(w io.Writer, m *skeleton.Model, motion skeleton.Motion, opts Options) error {
	if err := motion.Check(m); err != nil {
		return fmt.Errorf("bvh: %w", err)
	}
	prec := opts.precision()

	var sb strings.Builder
	sb.WriteString("MOTION\n")
	fmt.Fprintf(&sb, "Frames: %d\n", motion.NumFrames())
	fmt.Fprintf(&sb, "Frame Time: %s\n", strconv.FormatFloat(motion.FrameTime, 'f', -1, 64))
	for _, row := range motion.Frames {
		for i, v := range row {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatFloat(v, 'f', prec, 64))
		}
		sb.WriteByte('\n')
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("bvh: write motion: %w", err)
	}
	return nil
}

func closeScope(sb *strings.Builder, depth int) {
	fmt.Fprintf(sb, "%s}\n", indent(depth))
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func outOfOrder(m *skeleton.Model, id skeleton.JointID) error {
	return fmt.Errorf("bvh: joint %q is not listed under its parent's scope: %w",
		m.Name(id), skeleton.ErrMalformedHierarchy)
}

func formatOffset(v r3.Vec) string {
	return strconv.FormatFloat(v.X, 'f', -1, 64) + " " +
		strconv.FormatFloat(v.Y, 'f', -1, 64) + " " +
		strconv.FormatFloat(v.Z, 'f', -1, 64)
}

func formatChannels(channels []skeleton.Channel) string {
	parts := make([]string, 0, len(channels)+1)
	parts = append(parts, strconv.Itoa(len(channels)))
	for _, ch := range channels {
		parts = append(parts, ch.String())
	}
	return strings.Join(parts, " ")
}
