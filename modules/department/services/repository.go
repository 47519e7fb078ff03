package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
)

// ErrNotFound is returned by repositories when a department id does not
// resolve within the tenant.
var ErrNotFound = errors.New("department not found")

// DepartmentRepository is the transactional row-store the service runs on.
// Interval-shift operations are always scoped to one (tenant, root) numbering
// space; the service sequences them inside a single InTx call so a failed
// mutation leaves no partial renumbering behind.
//
// DetachSubtree and AttachSubtree cooperate through an index-negation
// convention: detaching negates the stored indices of the subtree rows, which
// keeps them out of every later ">=" / ">" range predicate until AttachSubtree
// rewrites them at their destination.
type DepartmentRepository interface {
	// InTx runs fn atomically; when fn returns an error nothing is committed.
	// Mutations on the same tree are serialized by the store.
	InTx(ctx context.Context, fn func(txCtx context.Context) error) error

	GetByID(ctx context.Context, tenantID, id uuid.UUID) (department.Department, error)
	// GetByIDForUpdate additionally locks the row for the current transaction.
	GetByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (department.Department, error)
	Insert(ctx context.Context, d department.Department) error
	UpdateName(ctx context.Context, tenantID, id uuid.UUID, name string) error
	SetParent(ctx context.Context, tenantID, id uuid.UUID, parentID *uuid.UUID) error
	// DeleteSubtree removes every row of the tree whose interval lies within
	// [left, right], the subtree owner included. Returns the number of rows
	// removed.
	DeleteSubtree(ctx context.Context, tenantID, rootID uuid.UUID, left, right int) (int64, error)

	// MakeRoom widens the numbering space: rows with rightIndex >= at gain
	// width on the right bound, rows with leftIndex >= at gain width on the
	// left bound.
	MakeRoom(ctx context.Context, tenantID, rootID uuid.UUID, at, width int) error
	// CloseGap shifts rows lying right of a removed interval back: rows with
	// leftIndex > after lose width on the left bound, rows with
	// rightIndex > after lose width on the right bound.
	CloseGap(ctx context.Context, tenantID, rootID uuid.UUID, after, width int) error
	// DetachSubtree negates the indices of rows whose interval lies within
	// [left, right].
	DetachSubtree(ctx context.Context, tenantID, rootID uuid.UUID, left, right int) error
	// AttachSubtree rewrites previously detached rows of srcRootID to their
	// destination: newIndex = -storedIndex + offset, level += levelDelta,
	// rootID = dstRootID.
	AttachSubtree(ctx context.Context, tenantID, srcRootID, dstRootID uuid.UUID, offset, levelDelta int) error

	CountInTree(ctx context.Context, tenantID, rootID uuid.UUID) (int, error)

	Ancestors(ctx context.Context, of department.Department) ([]department.Department, error)
	Descendants(ctx context.Context, of department.Department) ([]department.Department, error)
	ChildrenOf(ctx context.Context, tenantID, id uuid.UUID) ([]department.Department, error)
	Roots(ctx context.Context, tenantID uuid.UUID) ([]department.Department, error)
	All(ctx context.Context, tenantID uuid.UUID) ([]department.Department, error)
	SearchByName(ctx context.Context, tenantID uuid.UUID, query string) ([]department.Department, error)
}
