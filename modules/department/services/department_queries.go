package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
)

func (s *DepartmentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*department.Department, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeNoTenant, "tenant_id is required", nil)
	}
	node, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, asNotFound(err)
	}
	return &node, nil
}

// Parent resolves the direct parent. Roots have none; asking for it is an
// error rather than an empty answer. A stored parent_id that no longer
// resolves is surfaced as a parent-not-found fault, not ignored.
func (s *DepartmentService) Parent(ctx context.Context, tenantID, id uuid.UUID) (*department.Department, error) {
	node, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if node.ParentID == nil {
		return nil, newServiceError(http.StatusUnprocessableEntity, CodeNoParent, "department is a root and has no parent", nil)
	}
	parent, err := s.repo.GetByID(ctx, tenantID, *node.ParentID)
	if err != nil {
		return nil, asParentNotFound(err)
	}
	return &parent, nil
}

// Ancestors returns the chain from the node's root down to its direct parent.
// A root has no ancestors.
func (s *DepartmentService) Ancestors(ctx context.Context, tenantID, id uuid.UUID) ([]department.Department, error) {
	node, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	chain, err := s.repo.Ancestors(ctx, *node)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return chain, nil
}

// Descendants returns the node's strict subtree in left-index order, so a
// parent always precedes its children.
func (s *DepartmentService) Descendants(ctx context.Context, tenantID, id uuid.UUID) ([]department.Department, error) {
	node, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.Descendants(ctx, *node)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return sub, nil
}

func (s *DepartmentService) Children(ctx context.Context, tenantID, id uuid.UUID) ([]department.Department, error) {
	if _, err := s.GetByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	children, err := s.repo.ChildrenOf(ctx, tenantID, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return children, nil
}

func (s *DepartmentService) Roots(ctx context.Context, tenantID uuid.UUID) ([]department.Department, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeNoTenant, "tenant_id is required", nil)
	}
	roots, err := s.repo.Roots(ctx, tenantID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return roots, nil
}

func (s *DepartmentService) All(ctx context.Context, tenantID uuid.UUID) ([]department.Department, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeNoTenant, "tenant_id is required", nil)
	}
	all, err := s.repo.All(ctx, tenantID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return all, nil
}

func (s *DepartmentService) SearchByName(ctx context.Context, tenantID uuid.UUID, query string) ([]department.Department, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeNoTenant, "tenant_id is required", nil)
	}
	found, err := s.repo.SearchByName(ctx, tenantID, query)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return found, nil
}
