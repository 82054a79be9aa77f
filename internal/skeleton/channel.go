package skeleton

import (
	"fmt"
	"strings"
)

// ChannelKind tells translation channels from rotation channels.
type ChannelKind int

const (
	Position ChannelKind = iota
	Rotation
)

func (k ChannelKind) String() string {
	if k == Rotation {
		return "rotation"
	}
	return "position"
}

// Channel is one animated degree of freedom: an axis letter plus a kind.
type Channel struct {
	Axis byte // 'X', 'Y' or 'Z'
	Kind ChannelKind
}

// String returns the BVH token, e.g. "Xposition" or "Zrotation".
func (c Channel) String() string {
	return string(c.Axis) + c.Kind.String()
}

// Column returns the lower-cased axis letter used in CSV column names.
func (c Channel) Column() string {
	return strings.ToLower(string(c.Axis))
}

// ParseChannel parses a BVH channel token. Axis letters are case-insensitive.
func ParseChannel(token string) (Channel, error) {
	if len(token) < 2 {
		return Channel{}, fmt.Errorf("skeleton: invalid channel %q", token)
	}
	axis := strings.ToUpper(token[:1])[0]
	if axis != 'X' && axis != 'Y' && axis != 'Z' {
		return Channel{}, fmt.Errorf("skeleton: invalid channel axis in %q", token)
	}
	switch strings.ToLower(token[1:]) {
	case "position":
		return Channel{Axis: axis, Kind: Position}, nil
	case "rotation":
		return Channel{Axis: axis, Kind: Rotation}, nil
	}
	return Channel{}, fmt.Errorf("skeleton: invalid channel kind in %q", token)
}

// RotationIndices returns the positions of the rotation channels within
// channels, keeping declared order.
func RotationIndices(channels []Channel) []int {
	var out []int
	for i, ch := range channels {
		if ch.Kind == Rotation {
			out = append(out, i)
		}
	}
	return out
}
