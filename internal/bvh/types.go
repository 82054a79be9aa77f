// Package bvh reads and writes Biovision Hierarchy text.
package bvh

import (
	"errors"

	"mocap-bvh-csv/internal/skeleton"
)

// ErrSyntax is returned for text that does not follow the BVH grammar.
var ErrSyntax = errors.New("bvh: syntax error")

// DefaultPrecision is the number of decimals written per motion value.
const DefaultPrecision = 5

// EndSiteSuffix is appended to the parent name to name an End Site, which has
// no name of its own in BVH text.
const EndSiteSuffix = "_End"

// Document is a parsed clip: the validated hierarchy plus its motion table.
type Document struct {
	Model  *skeleton.Model
	Motion skeleton.Motion
}
