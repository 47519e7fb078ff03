package department

import (
	"time"

	"github.com/google/uuid"
)

// Department is one node of a tenant's department forest, encoded with
// nested-set intervals. Every structural field is maintained together: the
// parent pointer, the level and the (LeftIndex, RightIndex) interval always
// agree after a committed mutation.
//
// Interval numbering is scoped per (TenantID, RootID); independent trees
// reuse overlapping numbering spaces.
type Department struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	RootID     uuid.UUID
	ParentID   *uuid.UUID
	Name       string
	Level      int
	LeftIndex  int
	RightIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (d Department) IsRoot() bool {
	return d.ParentID == nil
}

// Width is the number of index units occupied by d and all its descendants.
func (d Department) Width() int {
	return d.RightIndex - d.LeftIndex + 1
}

func (d Department) DescendantCount() int {
	return (d.RightIndex - d.LeftIndex - 1) / 2
}

// Contains reports whether other lies strictly inside d's interval, i.e. d is
// an ancestor of other. Nodes of different trees never contain each other.
func (d Department) Contains(other Department) bool {
	if d.TenantID != other.TenantID || d.RootID != other.RootID {
		return false
	}
	return d.LeftIndex < other.LeftIndex && other.RightIndex < d.RightIndex
}
