// Package chain implements the chain metadata model: persistence of
// stacked-branch chains in repository configuration, and the pure
// in-memory operations (ordering, invariant checks) over them.
package chain

import "sort"

// Chain is a named, ordered sequence of branches sitting atop a root
// branch.
type Chain struct {
	// Name identifies the chain. Unique within the repository.
	Name string

	// Root is the branch the chain sits upon. Never a member.
	Root string

	// Members lists the chain's branches in ascending chain-order.
	Members []string
}

// BranchMeta is the metadata recorded for a single branch that
// belongs to a chain.
type BranchMeta struct {
	// Branch is the branch name.
	Branch string

	// ChainName is the chain this branch belongs to.
	ChainName string

	// ParentPos is this branch's chain-order position.
	ParentPos int

	// RootBranch is the chain's root, duplicated here for
	// invariant-checking convenience.
	RootBranch string
}

// Parent reports the name of the branch immediately before idx in
// the chain, or the root branch if idx is 0.
//
// Chains are linear: a member's parent is simply its predecessor, or
// the root when it has none. This dispenses with any graph
// structure; position is an integer key.
func (c *Chain) Parent(idx int) string {
	if idx <= 0 {
		return c.Root
	}
	return c.Members[idx-1]
}

// IndexOf returns the position of branch within the chain's Members,
// or -1 if it is not a member.
func (c *Chain) IndexOf(branch string) int {
	for i, m := range c.Members {
		if m == branch {
			return i
		}
	}
	return -1
}

// positionStride is the spacing used when assigning fresh chain-order
// values, leaving room to insert between any two adjacent members
// without renumbering the whole chain.
const positionStride = 1024

// assignPositions returns n monotonically increasing chain-order
// values, evenly spaced by positionStride, for a freshly created
// chain.
func assignPositions(n int) []int {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = (i + 1) * positionStride
	}
	return positions
}

// insertPosition returns a chain-order value strictly between lo and
// hi, and whether one exists without renumbering. Callers pass lo=0
// when inserting before the first member and hi=0 when inserting
// after the last.
func insertPosition(lo, hi int) (pos int, ok bool) {
	switch {
	case lo == 0 && hi == 0:
		return positionStride, true
	case lo == 0:
		if hi > 1 {
			return hi / 2, true
		}
		return 0, false
	case hi == 0:
		return lo + positionStride, true
	default:
		if hi-lo > 1 {
			return lo + (hi-lo)/2, true
		}
		return 0, false
	}
}

// renumber reassigns evenly spaced chain-order values to every entry
// in order, used when insertPosition finds no room between two
// adjacent integers. It is the "internal implementation choice"
// §4.1 permits: order is preserved, values are not.
func renumber(n int) []int {
	return assignPositions(n)
}

// sortByPosition sorts branch names by their recorded chain-order
// position, ascending.
func sortByPosition(branches []string, position map[string]int) {
	sort.Slice(branches, func(i, j int) bool {
		return position[branches[i]] < position[branches[j]]
	})
}

// CheckInvariants verifies the global invariants that must hold
// across every chain read from the store: every chain has a root, no
// branch is claimed by more than one chain, and the root is never also
// a member. Member order is not checked here: a Chain carries member
// names only, not their chain-order values.
func CheckInvariants(chains []*Chain) error {
	owner := make(map[string]string, len(chains))
	for _, c := range chains {
		if c.Root == "" {
			return &ErrInvariant{Reason: "chain " + c.Name + " has no root branch"}
		}
		for _, m := range c.Members {
			if m == c.Root {
				return &ErrInvariant{Reason: "branch " + m + " is both root and member of chain " + c.Name}
			}
			if prev, ok := owner[m]; ok && prev != c.Name {
				return &ErrInvariant{Reason: "branch " + m + " claims membership in both " + prev + " and " + c.Name}
			}
			owner[m] = c.Name
		}
	}
	return nil
}
