package skeleton

import (
	"fmt"
	"slices"
)

// Validate checks the structural invariants of a joint list before a model is
// built from it: exactly one root, no self-parenting, no cycles and every
// parent name resolving within the list. Checks run joint by joint in list
// order so the first offending joint is the one reported.
func Validate(specs []JointSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("skeleton: %w: %w", ErrMalformedHierarchy, ErrEmptyHierarchy)
	}

	names := make(map[string]string, len(specs))
	children := make(map[string][]string, len(specs))
	for _, s := range specs {
		if _, dup := names[s.Name]; dup {
			return malformed(ErrDuplicateJoint, s.Name, s.Parent)
		}
		names[s.Name] = s.Parent
		if s.Parent != "" {
			children[s.Parent] = append(children[s.Parent], s.Name)
		}
	}

	foundRoot := false
	for _, s := range specs {
		if s.Parent == "" {
			if foundRoot {
				return malformed(ErrMultipleRoots, s.Name, s.Parent)
			}
			foundRoot = true
			continue
		}
		if s.Name == s.Parent {
			return malformed(ErrSelfParent, s.Name, s.Parent)
		}
		if slices.Contains(children[s.Name], s.Parent) {
			return malformed(ErrCyclicRelation, s.Name, s.Parent)
		}
		if _, ok := names[s.Parent]; !ok {
			return malformed(ErrUnresolvedParent, s.Name, s.Parent)
		}
	}
	if !foundRoot {
		return fmt.Errorf("skeleton: %w: %w", ErrMalformedHierarchy, ErrNoRootFound)
	}

	// Longer cycles never reach the root: a walk of len(specs) parent hops
	// from a joint on such a cycle is still inside the map.
	for _, s := range specs {
		parent := s.Parent
		for hops := 0; parent != ""; hops++ {
			if hops >= len(specs) {
				return malformed(ErrCyclicRelation, s.Name, s.Parent)
			}
			parent = names[parent]
		}
	}
	return nil
}

func malformed(detail error, joint, parent string) error {
	return fmt.Errorf("skeleton: joint %q (parent %q): %w: %w", joint, parent, ErrMalformedHierarchy, detail)
}
