package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
	"github.com/iota-uz/orgtree/modules/department/infrastructure/persistence"
	"github.com/iota-uz/orgtree/modules/department/services"
	"github.com/iota-uz/orgtree/pkg/eventbus"
)

// Corrupted ancestor chains can only exist as leftovers of an earlier fault;
// the service must surface them and refuse to mutate, never repair in place.
// The rows are seeded straight into the store to simulate that prior damage.

func newSeededService(t *testing.T) (*services.DepartmentService, *persistence.MemoryDepartmentRepository) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	repo := persistence.NewMemoryDepartmentRepository()
	return services.NewDepartmentService(repo, eventbus.NewEventPublisher(logger)), repo
}

func seedRow(t *testing.T, repo *persistence.MemoryDepartmentRepository, d department.Department) {
	t.Helper()
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	require.NoError(t, repo.Insert(context.Background(), d))
}

func TestDelete_ParentCycleSurfacesIntegrityError(t *testing.T) {
	svc, repo := newSeededService(t)
	tenantID := uuid.New()
	ctx := context.Background()

	// Two rows pointing at each other as parents; no chain reaches a root.
	aID := uuid.New()
	bID := uuid.New()
	seedRow(t, repo, department.Department{
		ID: aID, TenantID: tenantID, RootID: aID, ParentID: &bID,
		Name: "Alpha", Level: 1, LeftIndex: 2, RightIndex: 3,
	})
	seedRow(t, repo, department.Department{
		ID: bID, TenantID: tenantID, RootID: aID, ParentID: &aID,
		Name: "Beta", Level: 1, LeftIndex: 4, RightIndex: 5,
	})

	before, err := repo.All(ctx, tenantID)
	require.NoError(t, err)

	err = svc.Delete(ctx, tenantID, aID)
	require.Error(t, err)
	require.True(t, services.HasCode(err, services.CodeIntegrity))

	after, err := repo.All(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestMove_ParentCycleSurfacesIntegrityError(t *testing.T) {
	svc, repo := newSeededService(t)
	tenantID := uuid.New()
	ctx := context.Background()

	aID := uuid.New()
	bID := uuid.New()
	seedRow(t, repo, department.Department{
		ID: aID, TenantID: tenantID, RootID: aID, ParentID: &bID,
		Name: "Alpha", Level: 1, LeftIndex: 2, RightIndex: 3,
	})
	seedRow(t, repo, department.Department{
		ID: bID, TenantID: tenantID, RootID: aID, ParentID: &aID,
		Name: "Beta", Level: 1, LeftIndex: 4, RightIndex: 5,
	})

	before, err := repo.All(ctx, tenantID)
	require.NoError(t, err)

	_, err = svc.Move(ctx, tenantID, aID, nil)
	require.Error(t, err)
	require.True(t, services.HasCode(err, services.CodeIntegrity))

	after, err := repo.All(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestDelete_DanglingStoredParentSurfacesParentNotFound(t *testing.T) {
	svc, repo := newSeededService(t)
	tenantID := uuid.New()
	ctx := context.Background()

	missing := uuid.New()
	orphanID := uuid.New()
	seedRow(t, repo, department.Department{
		ID: orphanID, TenantID: tenantID, RootID: orphanID, ParentID: &missing,
		Name: "Orphan", Level: 1, LeftIndex: 2, RightIndex: 3,
	})

	before, err := repo.All(ctx, tenantID)
	require.NoError(t, err)

	err = svc.Delete(ctx, tenantID, orphanID)
	require.Error(t, err)
	require.True(t, services.HasCode(err, services.CodeParentNotFound))

	after, err := repo.All(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestMove_DanglingStoredParentSurfacesParentNotFound(t *testing.T) {
	svc, repo := newSeededService(t)
	tenantID := uuid.New()
	ctx := context.Background()

	missing := uuid.New()
	orphanID := uuid.New()
	seedRow(t, repo, department.Department{
		ID: orphanID, TenantID: tenantID, RootID: orphanID, ParentID: &missing,
		Name: "Orphan", Level: 1, LeftIndex: 2, RightIndex: 3,
	})

	before, err := repo.All(ctx, tenantID)
	require.NoError(t, err)

	_, err = svc.Move(ctx, tenantID, orphanID, nil)
	require.Error(t, err)
	require.True(t, services.HasCode(err, services.CodeParentNotFound))

	after, err := repo.All(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestDelete_ParentlessNonRootSurfacesIntegrityError(t *testing.T) {
	svc, repo := newSeededService(t)
	tenantID := uuid.New()
	ctx := context.Background()

	// No parent pointer but claims membership in another tree; the chain
	// terminates at a row that is not its tree's root.
	otherTree := uuid.New()
	strayID := uuid.New()
	seedRow(t, repo, department.Department{
		ID: strayID, TenantID: tenantID, RootID: otherTree,
		Name: "Stray", Level: 0, LeftIndex: 1, RightIndex: 2,
	})

	err := svc.Delete(ctx, tenantID, strayID)
	require.Error(t, err)
	require.True(t, services.HasCode(err, services.CodeIntegrity))
}
