package bvh

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"mocap-bvh-csv/internal/skeleton"
)

// ParseFile reads a BVH file from disk.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bvh: open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse reads BVH text. The joint list is handed to skeleton.New in file
// order, so hierarchy errors surface as skeleton errors.
func Parse(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bvh: read: %w", err)
	}
	p := &parser{toks: strings.Fields(string(raw))}
	return p.parse()
}

type parser struct {
	toks  []string
	off   int
	specs []skeleton.JointSpec
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: token %d: %s", ErrSyntax, p.off, fmt.Sprintf(format, args...))
}

func (p *parser) next() (string, error) {
	if p.off >= len(p.toks) {
		return "", p.errorf("unexpected end of input")
	}
	t := p.toks[p.off]
	p.off++
	return t, nil
}

func (p *parser) peek() string {
	if p.off >= len(p.toks) {
		return ""
	}
	return p.toks[p.off]
}

func (p *parser) expect(want string) error {
	got, err := p.next()
	if err != nil {
		return err
	}
	if got != want {
		return p.errorf("expected %q, got %q", want, got)
	}
	return nil
}

func (p *parser) readFloat() (float64, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, p.errorf("invalid number %q", t)
	}
	return v, nil
}

func (p *parser) readInt() (int, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(t)
	if err != nil || v < 0 {
		return 0, p.errorf("invalid count %q", t)
	}
	return v, nil
}

func (p *parser) parse() (*Document, error) {
	if err := p.expect("HIERARCHY"); err != nil {
		return nil, err
	}
	if err := p.expect("ROOT"); err != nil {
		return nil, err
	}
	if err := p.parseJoint(""); err != nil {
		return nil, err
	}

	model, err := skeleton.New(p.specs)
	if err != nil {
		return nil, fmt.Errorf("bvh: %w", err)
	}

	motion, err := p.parseMotion(model.ChannelCount())
	if err != nil {
		return nil, err
	}
	return &Document{Model: model, Motion: motion}, nil
}

// parseJoint reads "<name> { OFFSET .. CHANNELS .. children }" after the
// ROOT or JOINT keyword.
func (p *parser) parseJoint(parent string) error {
	name, err := p.next()
	if err != nil {
		return err
	}
	if err := p.expect("{"); err != nil {
		return err
	}
	offset, err := p.parseOffset()
	if err != nil {
		return err
	}

	spec := skeleton.JointSpec{Name: name, Parent: parent, Offset: offset}
	if p.peek() == "CHANNELS" {
		p.off++
		n, err := p.readInt()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			t, err := p.next()
			if err != nil {
				return err
			}
			ch, err := skeleton.ParseChannel(t)
			if err != nil {
				return p.errorf("%v", err)
			}
			spec.Channels = append(spec.Channels, ch)
		}
	}
	p.specs = append(p.specs, spec)

	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		switch t {
		case "}":
			return nil
		case "JOINT":
			if err := p.parseJoint(name); err != nil {
				return err
			}
		case "End":
			if err := p.expect("Site"); err != nil {
				return err
			}
			if err := p.parseEndSite(name); err != nil {
				return err
			}
		default:
			return p.errorf("unexpected %q in joint %q", t, name)
		}
	}
}

func (p *parser) parseEndSite(parent string) error {
	if err := p.expect("{"); err != nil {
		return err
	}
	offset, err := p.parseOffset()
	if err != nil {
		return err
	}
	if err := p.expect("}"); err != nil {
		return err
	}
	p.specs = append(p.specs, skeleton.JointSpec{
		Name:   parent + EndSiteSuffix,
		Parent: parent,
		Offset: offset,
	})
	return nil
}

func (p *parser) parseOffset() (r3.Vec, error) {
	if err := p.expect("OFFSET"); err != nil {
		return r3.Vec{}, err
	}
	var v [3]float64
	for i := range v {
		f, err := p.readFloat()
		if err != nil {
			return r3.Vec{}, err
		}
		v[i] = f
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

func (p *parser) parseMotion(width int) (skeleton.Motion, error) {
	var motion skeleton.Motion
	if err := p.expect("MOTION"); err != nil {
		return motion, err
	}
	if err := p.expect("Frames:"); err != nil {
		return motion, err
	}
	n, err := p.readInt()
	if err != nil {
		return motion, err
	}
	if err := p.expect("Frame"); err != nil {
		return motion, err
	}
	if err := p.expect("Time:"); err != nil {
		return motion, err
	}
	if motion.FrameTime, err = p.readFloat(); err != nil {
		return motion, err
	}

	remaining := len(p.toks) - p.off
	if remaining != n*width {
		return motion, fmt.Errorf("bvh: %d motion values for %d frames of %d channels: %w",
			remaining, n, width, skeleton.ErrDimensionMismatch)
	}
	motion.Frames = make([][]float64, n)
	for f := range motion.Frames {
		row := make([]float64, width)
		for c := range row {
			if row[c], err = p.readFloat(); err != nil {
				return motion, err
			}
		}
		motion.Frames[f] = row
	}
	return motion, nil
}
