package persistence

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
	"github.com/iota-uz/orgtree/modules/department/services"
)

// MemoryDepartmentRepository is a mutex-serialized map store. InTx snapshots
// the whole map and restores it when fn fails, so callers observe the same
// all-or-nothing semantics the SQL store provides. It backs hermetic service
// and controller tests.
type MemoryDepartmentRepository struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]department.Department
	ctxMu sync.Mutex
}

func NewMemoryDepartmentRepository() *MemoryDepartmentRepository {
	return &MemoryDepartmentRepository{rows: make(map[uuid.UUID]department.Department)}
}

func (r *MemoryDepartmentRepository) InTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	r.ctxMu.Lock()
	defer r.ctxMu.Unlock()

	r.mu.Lock()
	snapshot := make(map[uuid.UUID]department.Department, len(r.rows))
	for id, row := range r.rows {
		snapshot[id] = row
	}
	r.mu.Unlock()

	err := fn(ctx)

	if err != nil {
		r.mu.Lock()
		r.rows = snapshot
		r.mu.Unlock()
	}
	return err
}

func (r *MemoryDepartmentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(tenantID, id)
}

func (r *MemoryDepartmentRepository) GetByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (department.Department, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *MemoryDepartmentRepository) get(tenantID, id uuid.UUID) (department.Department, error) {
	row, ok := r.rows[id]
	if !ok || row.TenantID != tenantID {
		return department.Department{}, services.ErrNotFound
	}
	return row, nil
}

func (r *MemoryDepartmentRepository) Insert(ctx context.Context, d department.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[d.ID] = d
	return nil
}

func (r *MemoryDepartmentRepository) UpdateName(ctx context.Context, tenantID, id uuid.UUID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, err := r.get(tenantID, id)
	if err != nil {
		return err
	}
	row.Name = name
	row.UpdatedAt = time.Now().UTC()
	r.rows[id] = row
	return nil
}

func (r *MemoryDepartmentRepository) SetParent(ctx context.Context, tenantID, id uuid.UUID, parentID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, err := r.get(tenantID, id)
	if err != nil {
		return err
	}
	row.ParentID = parentID
	row.UpdatedAt = time.Now().UTC()
	r.rows[id] = row
	return nil
}

func (r *MemoryDepartmentRepository) DeleteSubtree(ctx context.Context, tenantID, rootID uuid.UUID, left, right int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, row := range r.rows {
		if row.TenantID == tenantID && row.RootID == rootID && row.LeftIndex >= left && row.RightIndex <= right {
			delete(r.rows, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryDepartmentRepository) MakeRoom(ctx context.Context, tenantID, rootID uuid.UUID, at, width int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.TenantID != tenantID || row.RootID != rootID {
			continue
		}
		changed := false
		if row.RightIndex >= at {
			row.RightIndex += width
			changed = true
		}
		if row.LeftIndex >= at {
			row.LeftIndex += width
			changed = true
		}
		if changed {
			r.rows[id] = row
		}
	}
	return nil
}

func (r *MemoryDepartmentRepository) CloseGap(ctx context.Context, tenantID, rootID uuid.UUID, after, width int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.TenantID != tenantID || row.RootID != rootID {
			continue
		}
		changed := false
		if row.LeftIndex > after {
			row.LeftIndex -= width
			changed = true
		}
		if row.RightIndex > after {
			row.RightIndex -= width
			changed = true
		}
		if changed {
			r.rows[id] = row
		}
	}
	return nil
}

func (r *MemoryDepartmentRepository) DetachSubtree(ctx context.Context, tenantID, rootID uuid.UUID, left, right int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.TenantID == tenantID && row.RootID == rootID && row.LeftIndex >= left && row.RightIndex <= right {
			row.LeftIndex = -row.LeftIndex
			row.RightIndex = -row.RightIndex
			r.rows[id] = row
		}
	}
	return nil
}

func (r *MemoryDepartmentRepository) AttachSubtree(ctx context.Context, tenantID, srcRootID, dstRootID uuid.UUID, offset, levelDelta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.TenantID == tenantID && row.RootID == srcRootID && row.LeftIndex < 0 {
			row.LeftIndex = -row.LeftIndex + offset
			row.RightIndex = -row.RightIndex + offset
			row.Level += levelDelta
			row.RootID = dstRootID
			row.UpdatedAt = time.Now().UTC()
			r.rows[id] = row
		}
	}
	return nil
}

func (r *MemoryDepartmentRepository) CountInTree(ctx context.Context, tenantID, rootID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.RootID == rootID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryDepartmentRepository) Ancestors(ctx context.Context, of department.Department) ([]department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var chain []department.Department
	for _, row := range r.rows {
		if row.TenantID == of.TenantID && row.RootID == of.RootID &&
			row.LeftIndex < of.LeftIndex && of.RightIndex < row.RightIndex {
			chain = append(chain, row)
		}
	}
	sortByLeft(chain)
	return chain, nil
}

func (r *MemoryDepartmentRepository) Descendants(ctx context.Context, of department.Department) ([]department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sub []department.Department
	for _, row := range r.rows {
		if row.TenantID == of.TenantID && row.RootID == of.RootID &&
			of.LeftIndex < row.LeftIndex && row.RightIndex < of.RightIndex {
			sub = append(sub, row)
		}
	}
	sortByLeft(sub)
	return sub, nil
}

func (r *MemoryDepartmentRepository) ChildrenOf(ctx context.Context, tenantID, id uuid.UUID) ([]department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var children []department.Department
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.ParentID != nil && *row.ParentID == id {
			children = append(children, row)
		}
	}
	sortByLeft(children)
	return children, nil
}

func (r *MemoryDepartmentRepository) Roots(ctx context.Context, tenantID uuid.UUID) ([]department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var roots []department.Department
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.ParentID == nil {
			roots = append(roots, row)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.Before(roots[j].CreatedAt)
		}
		return bytes.Compare(roots[i].ID[:], roots[j].ID[:]) < 0
	})
	return roots, nil
}

func (r *MemoryDepartmentRepository) All(ctx context.Context, tenantID uuid.UUID) ([]department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []department.Department
	for _, row := range r.rows {
		if row.TenantID == tenantID {
			all = append(all, row)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].RootID != all[j].RootID {
			return bytes.Compare(all[i].RootID[:], all[j].RootID[:]) < 0
		}
		return all[i].LeftIndex < all[j].LeftIndex
	})
	return all, nil
}

func (r *MemoryDepartmentRepository) SearchByName(ctx context.Context, tenantID uuid.UUID, query string) ([]department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	query = strings.ToLower(query)
	var found []department.Department
	for _, row := range r.rows {
		if row.TenantID == tenantID && strings.Contains(strings.ToLower(row.Name), query) {
			found = append(found, row)
		}
	}
	sortByLeft(found)
	return found, nil
}

func sortByLeft(rows []department.Department) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RootID != rows[j].RootID {
			return bytes.Compare(rows[i].RootID[:], rows[j].RootID[:]) < 0
		}
		return rows[i].LeftIndex < rows[j].LeftIndex
	})
}
