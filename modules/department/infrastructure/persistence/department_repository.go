package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
	"github.com/iota-uz/orgtree/modules/department/services"
	"github.com/iota-uz/orgtree/pkg/composables"
)

const (
	selectDepartmentColumns = `
		id, tenant_id, root_id, parent_id, name, level, lft, rght, created_at, updated_at`

	selectDepartmentByIDQuery = `
		SELECT` + selectDepartmentColumns + `
		FROM departments
		WHERE tenant_id = $1 AND id = $2`

	insertDepartmentQuery = `
		INSERT INTO departments (id, tenant_id, root_id, parent_id, name, level, lft, rght, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	updateDepartmentNameQuery = `
		UPDATE departments SET name = $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`

	updateDepartmentParentQuery = `
		UPDATE departments SET parent_id = $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`

	deleteSubtreeQuery = `
		DELETE FROM departments
		WHERE tenant_id = $1 AND root_id = $2 AND lft >= $3 AND rght <= $4`

	makeRoomRightQuery = `
		UPDATE departments SET rght = rght + $4
		WHERE tenant_id = $1 AND root_id = $2 AND rght >= $3`

	makeRoomLeftQuery = `
		UPDATE departments SET lft = lft + $4
		WHERE tenant_id = $1 AND root_id = $2 AND lft >= $3`

	closeGapLeftQuery = `
		UPDATE departments SET lft = lft - $4
		WHERE tenant_id = $1 AND root_id = $2 AND lft > $3`

	closeGapRightQuery = `
		UPDATE departments SET rght = rght - $4
		WHERE tenant_id = $1 AND root_id = $2 AND rght > $3`

	detachSubtreeQuery = `
		UPDATE departments SET lft = -lft, rght = -rght
		WHERE tenant_id = $1 AND root_id = $2 AND lft >= $3 AND rght <= $4`

	attachSubtreeQuery = `
		UPDATE departments
		SET lft = -lft + $3, rght = -rght + $3, level = level + $4, root_id = $5, updated_at = now()
		WHERE tenant_id = $1 AND root_id = $2 AND lft < 0`

	countInTreeQuery = `
		SELECT COUNT(*) FROM departments
		WHERE tenant_id = $1 AND root_id = $2`

	selectAncestorsQuery = `
		SELECT` + selectDepartmentColumns + `
		FROM departments
		WHERE tenant_id = $1 AND root_id = $2 AND lft < $3 AND rght > $4
		ORDER BY lft`

	selectDescendantsQuery = `
		SELECT` + selectDepartmentColumns + `
		FROM departments
		WHERE tenant_id = $1 AND root_id = $2 AND lft > $3 AND rght < $4
		ORDER BY lft`

	selectChildrenQuery = `
		SELECT` + selectDepartmentColumns + `
		FROM departments
		WHERE tenant_id = $1 AND parent_id = $2
		ORDER BY lft`

	selectRootsQuery = `
		SELECT` + selectDepartmentColumns + `
		FROM departments
		WHERE tenant_id = $1 AND parent_id IS NULL
		ORDER BY created_at, id`

	selectAllQuery = `
		SELECT` + selectDepartmentColumns + `
		FROM departments
		WHERE tenant_id = $1
		ORDER BY root_id, lft`

	searchByNameQuery = `
		SELECT` + selectDepartmentColumns + `
		FROM departments
		WHERE tenant_id = $1 AND name ILIKE '%' || $2 || '%'
		ORDER BY root_id, lft`
)

// PgDepartmentRepository stores the forest in a single departments table.
// Interval shifts run as scoped range UPDATEs; InTx wraps them in one
// pgx transaction and row locks serialize writers touching the same tree.
type PgDepartmentRepository struct{}

func NewPgDepartmentRepository() *PgDepartmentRepository {
	return &PgDepartmentRepository{}
}

func (r *PgDepartmentRepository) InTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return composables.InTx(ctx, fn)
}

func (r *PgDepartmentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (department.Department, error) {
	return r.queryOne(ctx, selectDepartmentByIDQuery, tenantID, id)
}

func (r *PgDepartmentRepository) GetByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (department.Department, error) {
	return r.queryOne(ctx, selectDepartmentByIDQuery+` FOR UPDATE`, tenantID, id)
}

func (r *PgDepartmentRepository) queryOne(ctx context.Context, query string, args ...any) (department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return department.Department{}, err
	}
	row := tx.QueryRow(ctx, query, args...)
	d, err := scanDepartment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return department.Department{}, services.ErrNotFound
		}
		return department.Department{}, errors.Wrap(err, "failed to query department")
	}
	return d, nil
}

func (r *PgDepartmentRepository) Insert(ctx context.Context, d department.Department) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, insertDepartmentQuery,
		d.ID, d.TenantID, d.RootID, pgNullableUUID(d.ParentID), d.Name,
		d.Level, d.LeftIndex, d.RightIndex, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *PgDepartmentRepository) UpdateName(ctx context.Context, tenantID, id uuid.UUID, name string) error {
	return r.execExpectingRow(ctx, updateDepartmentNameQuery, tenantID, id, name)
}

func (r *PgDepartmentRepository) SetParent(ctx context.Context, tenantID, id uuid.UUID, parentID *uuid.UUID) error {
	return r.execExpectingRow(ctx, updateDepartmentParentQuery, tenantID, id, pgNullableUUID(parentID))
}

func (r *PgDepartmentRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *PgDepartmentRepository) DeleteSubtree(ctx context.Context, tenantID, rootID uuid.UUID, left, right int) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, deleteSubtreeQuery, tenantID, rootID, left, right)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgDepartmentRepository) MakeRoom(ctx context.Context, tenantID, rootID uuid.UUID, at, width int) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, makeRoomRightQuery, tenantID, rootID, at, width); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, makeRoomLeftQuery, tenantID, rootID, at, width)
	return err
}

func (r *PgDepartmentRepository) CloseGap(ctx context.Context, tenantID, rootID uuid.UUID, after, width int) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, closeGapLeftQuery, tenantID, rootID, after, width); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, closeGapRightQuery, tenantID, rootID, after, width)
	return err
}

func (r *PgDepartmentRepository) DetachSubtree(ctx context.Context, tenantID, rootID uuid.UUID, left, right int) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, detachSubtreeQuery, tenantID, rootID, left, right)
	return err
}

func (r *PgDepartmentRepository) AttachSubtree(ctx context.Context, tenantID, srcRootID, dstRootID uuid.UUID, offset, levelDelta int) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, attachSubtreeQuery, tenantID, srcRootID, offset, levelDelta, dstRootID)
	return err
}

func (r *PgDepartmentRepository) CountInTree(ctx context.Context, tenantID, rootID uuid.UUID) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	if err := tx.QueryRow(ctx, countInTreeQuery, tenantID, rootID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PgDepartmentRepository) Ancestors(ctx context.Context, of department.Department) ([]department.Department, error) {
	return r.queryMany(ctx, selectAncestorsQuery, of.TenantID, of.RootID, of.LeftIndex, of.RightIndex)
}

func (r *PgDepartmentRepository) Descendants(ctx context.Context, of department.Department) ([]department.Department, error) {
	return r.queryMany(ctx, selectDescendantsQuery, of.TenantID, of.RootID, of.LeftIndex, of.RightIndex)
}

func (r *PgDepartmentRepository) ChildrenOf(ctx context.Context, tenantID, id uuid.UUID) ([]department.Department, error) {
	return r.queryMany(ctx, selectChildrenQuery, tenantID, id)
}

func (r *PgDepartmentRepository) Roots(ctx context.Context, tenantID uuid.UUID) ([]department.Department, error) {
	return r.queryMany(ctx, selectRootsQuery, tenantID)
}

func (r *PgDepartmentRepository) All(ctx context.Context, tenantID uuid.UUID) ([]department.Department, error) {
	return r.queryMany(ctx, selectAllQuery, tenantID)
}

func (r *PgDepartmentRepository) SearchByName(ctx context.Context, tenantID uuid.UUID, query string) ([]department.Department, error) {
	return r.queryMany(ctx, searchByNameQuery, tenantID, query)
}

func (r *PgDepartmentRepository) queryMany(ctx context.Context, query string, args ...any) ([]department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var out []department.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan department row")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDepartment(row pgx.Row) (department.Department, error) {
	var d department.Department
	var parentID pgtype.UUID
	err := row.Scan(
		&d.ID, &d.TenantID, &d.RootID, &parentID, &d.Name,
		&d.Level, &d.LeftIndex, &d.RightIndex, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return department.Department{}, err
	}
	d.ParentID = nullableUUID(parentID)
	return d, nil
}

func pgNullableUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func nullableUUID(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}
