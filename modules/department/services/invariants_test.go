package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
	"github.com/iota-uz/orgtree/modules/department/services"
)

// requireForestInvariants checks the structural health of every tree the
// tenant owns: each tree's indices form a gap-free permutation of 1..2n,
// intervals nest exactly along parent pointers, levels count real depth, and
// every parent chain terminates at the tree's root.
func requireForestInvariants(t *testing.T, svc *services.DepartmentService, tenantID uuid.UUID) {
	t.Helper()

	all, err := svc.All(context.Background(), tenantID)
	require.NoError(t, err)

	byID := make(map[uuid.UUID]department.Department, len(all))
	trees := make(map[uuid.UUID][]department.Department)
	for _, d := range all {
		byID[d.ID] = d
		trees[d.RootID] = append(trees[d.RootID], d)
	}

	for rootID, tree := range trees {
		root, ok := byID[rootID]
		require.True(t, ok, "tree %s has no root row", rootID)
		require.Equal(t, rootID, root.ID)
		require.Nil(t, root.ParentID, "root %q has a parent", root.Name)
		require.Equal(t, 0, root.Level, "root %q level", root.Name)
		require.Equal(t, 1, root.LeftIndex, "root %q left index", root.Name)
		require.Equal(t, 2*len(tree), root.RightIndex, "root %q right index", root.Name)

		seen := make(map[int]bool, 2*len(tree))
		for _, d := range tree {
			require.Less(t, d.LeftIndex, d.RightIndex, "%q interval order", d.Name)
			require.GreaterOrEqual(t, d.LeftIndex, 1, "%q left bound", d.Name)
			require.LessOrEqual(t, d.RightIndex, 2*len(tree), "%q right bound", d.Name)
			require.False(t, seen[d.LeftIndex], "%q duplicate index %d", d.Name, d.LeftIndex)
			require.False(t, seen[d.RightIndex], "%q duplicate index %d", d.Name, d.RightIndex)
			seen[d.LeftIndex] = true
			seen[d.RightIndex] = true
		}

		for _, d := range tree {
			if d.ID == rootID {
				continue
			}
			require.NotNil(t, d.ParentID, "non-root %q has no parent", d.Name)
			parent, ok := byID[*d.ParentID]
			require.True(t, ok, "%q parent does not resolve", d.Name)
			require.Equal(t, d.RootID, parent.RootID, "%q crosses trees", d.Name)
			require.True(t, parent.Contains(d), "%q outside parent interval", d.Name)
			require.Equal(t, parent.Level+1, d.Level, "%q level vs parent", d.Name)

			// The direct parent is the tightest enclosing interval.
			for _, other := range tree {
				if other.ID == d.ID || other.ID == parent.ID {
					continue
				}
				if other.Contains(d) {
					require.True(t, other.Contains(parent),
						"%q enclosed by %q which is not an ancestor of its parent", d.Name, other.Name)
				}
			}
		}

		// Intervals nest or are disjoint, never partially overlap.
		for _, a := range tree {
			for _, b := range tree {
				if a.ID == b.ID {
					continue
				}
				overlap := a.LeftIndex < b.LeftIndex && b.LeftIndex < a.RightIndex && a.RightIndex < b.RightIndex
				require.False(t, overlap, "%q and %q partially overlap", a.Name, b.Name)
			}
		}

		for _, d := range tree {
			current := d
			for steps := 0; current.ParentID != nil; steps++ {
				require.Less(t, steps, len(tree), "%q ancestor chain does not terminate", d.Name)
				next, ok := byID[*current.ParentID]
				require.True(t, ok)
				current = next
			}
			require.Equal(t, rootID, current.ID, "%q chain ends outside root", d.Name)
		}
	}
}
