package skeleton

import "errors"

// Error taxonomy shared by every stage of a conversion job. Detailed errors
// wrap one of the category errors so callers can match either level with
// errors.Is.
var (
	ErrMalformedHierarchy   = errors.New("malformed hierarchy")
	ErrMissingChannelData   = errors.New("missing channel data")
	ErrFrameCountMismatch   = errors.New("frame count mismatch")
	ErrDegenerateTimeSeries = errors.New("degenerate time series")
	ErrDimensionMismatch    = errors.New("dimension mismatch")
)

// Hierarchy violations, each reported together with ErrMalformedHierarchy.
var (
	ErrMultipleRoots    = errors.New("hierarchy can't have more than one root")
	ErrSelfParent       = errors.New("joint cannot be parent of itself")
	ErrCyclicRelation   = errors.New("cyclic relation between joints")
	ErrUnresolvedParent = errors.New("parent cannot be found in the hierarchy")
	ErrNoRootFound      = errors.New("no root joint found in the hierarchy")
	ErrDuplicateJoint   = errors.New("joint name defined more than once")
	ErrEmptyHierarchy   = errors.New("hierarchy has no joints")
)

// Channel data violations, each reported together with ErrMissingChannelData.
var (
	ErrMissingRootChannels = errors.New("root has no position channels")
	ErrMissingRotationData = errors.New("no rotation data for joint with children")
	ErrRootPositionMissing = errors.New("no position data for hierarchy root")
)
