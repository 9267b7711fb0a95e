package lightgbm

import "math"

// ConstraintEntry is the admissible output range for one leaf, enforced
// while it stays live and propagated to its children on split.
type ConstraintEntry struct {
	Min float64
	Max float64
}

// LeafConstraints is a fixed-size array of ConstraintEntry indexed by leaf
// id, used to enforce monotone feature constraints as the tree grows.
type LeafConstraints struct {
	entries []ConstraintEntry
}

// NewLeafConstraints allocates constraints for up to numLeaves leaves, all
// initialised to (-Inf, +Inf).
func NewLeafConstraints(numLeaves int) *LeafConstraints {
	lc := &LeafConstraints{entries: make([]ConstraintEntry, numLeaves)}
	lc.Reset()
	return lc
}

// Reset restores every entry to the unconstrained (-Inf, +Inf) range.
func (lc *LeafConstraints) Reset() {
	for i := range lc.entries {
		lc.entries[i] = ConstraintEntry{Min: math.Inf(-1), Max: math.Inf(1)}
	}
}

// Get returns leaf's current constraint entry.
func (lc *LeafConstraints) Get(leaf int) ConstraintEntry {
	return lc.entries[leaf]
}

// UpdateConstraints propagates the parent leaf's bounds to its two new
// children and, for a monotone split (monotoneType != 0), further tightens
// them around the midpoint of the two children's outputs: an increasing
// constraint clamps the left child's upper bound and the right child's
// lower bound to (leftOutput+rightOutput)/2; a decreasing constraint does
// the mirror image.
func (lc *LeafConstraints) UpdateConstraints(parent int, left, right int, monotoneType int8, leftOutput, rightOutput float64) {
	parentBound := lc.entries[parent]
	lc.entries[left] = parentBound
	lc.entries[right] = parentBound

	if monotoneType == 0 {
		return
	}

	mid := (leftOutput + rightOutput) / 2.0
	if monotoneType > 0 {
		if mid < lc.entries[left].Max {
			lc.entries[left].Max = mid
		}
		if mid > lc.entries[right].Min {
			lc.entries[right].Min = mid
		}
	} else {
		if mid > lc.entries[left].Min {
			lc.entries[left].Min = mid
		}
		if mid < lc.entries[right].Max {
			lc.entries[right].Max = mid
		}
	}
}
