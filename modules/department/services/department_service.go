package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
	"github.com/iota-uz/orgtree/pkg/configuration"
	"github.com/iota-uz/orgtree/pkg/eventbus"
)

// DepartmentService owns the nested-set index maintenance for the department
// forest. Every mutation resolves and validates its references first, then
// commits the whole renumbering as one repository transaction.
type DepartmentService struct {
	repo      DepartmentRepository
	publisher eventbus.EventBus
}

func NewDepartmentService(repo DepartmentRepository, publisher eventbus.EventBus) *DepartmentService {
	return &DepartmentService{repo: repo, publisher: publisher}
}

type CreateDepartmentInput struct {
	Name     string
	ParentID *uuid.UUID
}

// Create inserts a department as the rightmost child of ParentID, or as the
// root of a new, independently numbered tree when ParentID is nil.
func (s *DepartmentService) Create(ctx context.Context, tenantID uuid.UUID, in CreateDepartmentInput) (*department.Department, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeNoTenant, "tenant_id is required", nil)
	}
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}

	var created department.Department
	err = s.repo.InTx(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC()
		id := uuid.New()

		if in.ParentID == nil {
			created = department.Department{
				ID:         id,
				TenantID:   tenantID,
				RootID:     id,
				Name:       name,
				Level:      0,
				LeftIndex:  1,
				RightIndex: 2,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			return mapStoreError(s.repo.Insert(txCtx, created))
		}

		parent, err := s.repo.GetByIDForUpdate(txCtx, tenantID, *in.ParentID)
		if err != nil {
			return asParentNotFound(err)
		}

		at := parent.RightIndex
		if err := s.repo.MakeRoom(txCtx, tenantID, parent.RootID, at, 2); err != nil {
			return mapStoreError(err)
		}
		created = department.Department{
			ID:         id,
			TenantID:   tenantID,
			RootID:     parent.RootID,
			ParentID:   in.ParentID,
			Name:       name,
			Level:      parent.Level + 1,
			LeftIndex:  at,
			RightIndex: at + 1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return mapStoreError(s.repo.Insert(txCtx, created))
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&department.CreatedEvent{Department: created})
	return &created, nil
}

// Rename updates the name only; indices, level and parent are untouched.
// Renaming to the current name is a no-op beyond validation.
func (s *DepartmentService) Rename(ctx context.Context, tenantID, id uuid.UUID, name string) (*department.Department, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeNoTenant, "tenant_id is required", nil)
	}
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	var renamed department.Department
	var oldName string
	err = s.repo.InTx(ctx, func(txCtx context.Context) error {
		node, err := s.repo.GetByIDForUpdate(txCtx, tenantID, id)
		if err != nil {
			return asNotFound(err)
		}
		oldName = node.Name
		if node.Name == name {
			renamed = node
			return nil
		}
		if err := s.repo.UpdateName(txCtx, tenantID, id, name); err != nil {
			return mapStoreError(err)
		}
		node.Name = name
		node.UpdatedAt = time.Now().UTC()
		renamed = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	if oldName != renamed.Name {
		s.publisher.Publish(&department.RenamedEvent{Department: renamed, OldName: oldName})
	}
	return &renamed, nil
}

// Move relocates the subtree rooted at id under newParentID, or turns it into
// the root of a fresh tree when newParentID is nil. The vacated tree's gap is
// closed and the destination widened in the same transaction.
//
// Moving a node to its current parent is a structural no-op: inputs are still
// resolved and validated, but no indices are rewritten.
func (s *DepartmentService) Move(ctx context.Context, tenantID, id uuid.UUID, newParentID *uuid.UUID) (*department.Department, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeNoTenant, "tenant_id is required", nil)
	}
	var moved department.Department
	var oldParentID *uuid.UUID
	var structuralChange bool
	err := s.repo.InTx(ctx, func(txCtx context.Context) error {
		node, err := s.repo.GetByIDForUpdate(txCtx, tenantID, id)
		if err != nil {
			return asNotFound(err)
		}
		if newParentID != nil && *newParentID == id {
			return newServiceError(http.StatusConflict, CodeCycle, "department cannot be its own parent", nil)
		}
		oldParentID = node.ParentID

		var newParent *department.Department
		if newParentID != nil {
			p, err := s.repo.GetByIDForUpdate(txCtx, tenantID, *newParentID)
			if err != nil {
				return asParentNotFound(err)
			}
			if node.Contains(p) {
				return newServiceError(http.StatusConflict, CodeCycle, "target parent is a descendant of the moved department", nil)
			}
			newParent = &p
		}

		if sameParent(node.ParentID, newParentID) {
			moved = node
			return nil
		}

		if err := s.checkAncestorChain(txCtx, tenantID, node); err != nil {
			return err
		}

		width := node.Width()
		oldRootID, oldLeft, oldRight := node.RootID, node.LeftIndex, node.RightIndex

		if err := s.repo.DetachSubtree(txCtx, tenantID, oldRootID, oldLeft, oldRight); err != nil {
			return mapStoreError(err)
		}
		if err := s.repo.CloseGap(txCtx, tenantID, oldRootID, oldRight, width); err != nil {
			return mapStoreError(err)
		}

		var insertionPoint, levelDelta int
		var dstRootID uuid.UUID
		if newParent == nil {
			insertionPoint = 1
			levelDelta = -node.Level
			dstRootID = node.ID
		} else {
			// The target's indices may have shifted while closing the gap;
			// they must be re-read before computing the insertion point.
			fresh, err := s.repo.GetByID(txCtx, tenantID, newParent.ID)
			if err != nil {
				return asParentNotFound(err)
			}
			insertionPoint = fresh.RightIndex
			levelDelta = fresh.Level + 1 - node.Level
			dstRootID = fresh.RootID
			if err := s.repo.MakeRoom(txCtx, tenantID, dstRootID, insertionPoint, width); err != nil {
				return mapStoreError(err)
			}
		}

		offset := insertionPoint - oldLeft
		if err := s.repo.AttachSubtree(txCtx, tenantID, oldRootID, dstRootID, offset, levelDelta); err != nil {
			return mapStoreError(err)
		}
		if err := s.repo.SetParent(txCtx, tenantID, node.ID, newParentID); err != nil {
			return mapStoreError(err)
		}

		moved, err = s.repo.GetByID(txCtx, tenantID, node.ID)
		if err != nil {
			return mapStoreError(err)
		}
		structuralChange = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if structuralChange {
		s.publisher.Publish(&department.MovedEvent{Department: moved, OldParentID: oldParentID})
	}
	return &moved, nil
}

// Delete removes the department and its whole subtree, then closes the
// numbering gap it leaves behind.
func (s *DepartmentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if tenantID == uuid.Nil {
		return newServiceError(http.StatusBadRequest, CodeNoTenant, "tenant_id is required", nil)
	}

	var deleted department.Department
	var removed int64
	err := s.repo.InTx(ctx, func(txCtx context.Context) error {
		node, err := s.repo.GetByIDForUpdate(txCtx, tenantID, id)
		if err != nil {
			return asNotFound(err)
		}
		if node.ParentID != nil {
			if _, err := s.repo.GetByID(txCtx, tenantID, *node.ParentID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return newServiceError(http.StatusUnprocessableEntity, CodeParentNotFound, "stored parent_id does not resolve", err)
				}
				return mapStoreError(err)
			}
		}
		if err := s.checkAncestorChain(txCtx, tenantID, node); err != nil {
			return err
		}

		removed, err = s.repo.DeleteSubtree(txCtx, tenantID, node.RootID, node.LeftIndex, node.RightIndex)
		if err != nil {
			return mapStoreError(err)
		}
		if err := s.repo.CloseGap(txCtx, tenantID, node.RootID, node.RightIndex, node.Width()); err != nil {
			return mapStoreError(err)
		}
		deleted = node
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(&department.DeletedEvent{Department: deleted, RemovedCount: removed})
	return nil
}

// checkAncestorChain walks stored parent pointers up to a true root. The walk
// is bounded by the tree's row count; exceeding it means the stored chain is
// cyclic and the tree was corrupted by an earlier fault. Corruption is
// surfaced, never repaired.
func (s *DepartmentService) checkAncestorChain(ctx context.Context, tenantID uuid.UUID, node department.Department) error {
	limit, err := s.repo.CountInTree(ctx, tenantID, node.RootID)
	if err != nil {
		return mapStoreError(err)
	}

	current := node
	for steps := 0; current.ParentID != nil; steps++ {
		if steps >= limit {
			return newServiceError(http.StatusInternalServerError, CodeIntegrity, "ancestor chain does not terminate at a root", nil)
		}
		parent, err := s.repo.GetByID(ctx, tenantID, *current.ParentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return newServiceError(http.StatusUnprocessableEntity, CodeParentNotFound, "stored parent_id does not resolve", err)
			}
			return mapStoreError(err)
		}
		current = parent
	}
	if current.RootID != current.ID {
		return newServiceError(http.StatusInternalServerError, CodeIntegrity, "parentless department is not its tree's root", nil)
	}
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", newServiceError(http.StatusBadRequest, CodeValidation, "name is required", nil)
	}
	maxLen := configuration.Use().Department.MaxNameLength
	if utf8.RuneCountInString(name) > maxLen {
		return "", newServiceError(http.StatusBadRequest, CodeValidation, "name exceeds maximum length", nil)
	}
	return name, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func asNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return newServiceError(http.StatusNotFound, CodeNotFound, "department not found", err)
	}
	return mapStoreError(err)
}

func asParentNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return newServiceError(http.StatusUnprocessableEntity, CodeParentNotFound, "parent department not found", err)
	}
	return mapStoreError(err)
}
