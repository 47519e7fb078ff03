package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
	"github.com/iota-uz/orgtree/modules/department/infrastructure/persistence"
	"github.com/iota-uz/orgtree/modules/department/services"
)

func seedRoot(t *testing.T, repo *persistence.MemoryDepartmentRepository, tenantID uuid.UUID, name string) department.Department {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.New()
	d := department.Department{
		ID: id, TenantID: tenantID, RootID: id, Name: name,
		LeftIndex: 1, RightIndex: 2, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Insert(context.Background(), d))
	return d
}

func TestMemoryRepository_InTxRollback(t *testing.T) {
	repo := persistence.NewMemoryDepartmentRepository()
	ctx := context.Background()
	tenantID := uuid.New()

	root := seedRoot(t, repo, tenantID, "Engineering")

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(txCtx context.Context) error {
		if err := repo.UpdateName(txCtx, tenantID, root.ID, "Renamed"); err != nil {
			return err
		}
		if err := repo.MakeRoom(txCtx, tenantID, root.RootID, 2, 2); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	fresh, err := repo.GetByID(ctx, tenantID, root.ID)
	require.NoError(t, err)
	require.Equal(t, "Engineering", fresh.Name)
	require.Equal(t, 2, fresh.RightIndex)
}

func TestMemoryRepository_DetachAttach(t *testing.T) {
	repo := persistence.NewMemoryDepartmentRepository()
	ctx := context.Background()
	tenantID := uuid.New()

	root := seedRoot(t, repo, tenantID, "Engineering")

	childID := uuid.New()
	now := time.Now().UTC()
	child := department.Department{
		ID: childID, TenantID: tenantID, RootID: root.RootID, ParentID: &root.ID,
		Name: "Platform", Level: 1, LeftIndex: 2, RightIndex: 3,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.MakeRoom(ctx, tenantID, root.RootID, 2, 2))
	require.NoError(t, repo.Insert(ctx, child))

	// Detached rows disappear from range predicates until reattached.
	require.NoError(t, repo.DetachSubtree(ctx, tenantID, root.RootID, 2, 3))
	require.NoError(t, repo.CloseGap(ctx, tenantID, root.RootID, 3, 2))

	freshRoot, err := repo.GetByID(ctx, tenantID, root.ID)
	require.NoError(t, err)
	require.Equal(t, 2, freshRoot.RightIndex)

	require.NoError(t, repo.AttachSubtree(ctx, tenantID, root.RootID, childID, -1, -1))
	freshChild, err := repo.GetByID(ctx, tenantID, childID)
	require.NoError(t, err)
	require.Equal(t, childID, freshChild.RootID)
	require.Equal(t, 0, freshChild.Level)
	require.Equal(t, 1, freshChild.LeftIndex)
	require.Equal(t, 2, freshChild.RightIndex)
}

func TestMemoryRepository_NotFoundScopedToTenant(t *testing.T) {
	repo := persistence.NewMemoryDepartmentRepository()
	ctx := context.Background()

	root := seedRoot(t, repo, uuid.New(), "Engineering")

	_, err := repo.GetByID(ctx, uuid.New(), root.ID)
	require.ErrorIs(t, err, services.ErrNotFound)

	err = repo.UpdateName(ctx, uuid.New(), root.ID, "Other")
	require.ErrorIs(t, err, services.ErrNotFound)
}
