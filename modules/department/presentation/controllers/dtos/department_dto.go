package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
	"github.com/iota-uz/orgtree/pkg/constants"
)

type CreateDepartmentRequest struct {
	Name     string  `json:"name" validate:"required"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid4"`
}

func (r *CreateDepartmentRequest) Validate() error {
	return constants.Validate.Struct(r)
}

func (r *CreateDepartmentRequest) ParentUUID() (*uuid.UUID, error) {
	return parseOptionalUUID(r.ParentID)
}

type RenameDepartmentRequest struct {
	Name string `json:"name" validate:"required"`
}

func (r *RenameDepartmentRequest) Validate() error {
	return constants.Validate.Struct(r)
}

// MoveDepartmentRequest relocates a department. A null or absent parent_id
// promotes the department to a root of its own tree.
type MoveDepartmentRequest struct {
	ParentID *string `json:"parent_id" validate:"omitempty,uuid4"`
}

func (r *MoveDepartmentRequest) Validate() error {
	return constants.Validate.Struct(r)
}

func (r *MoveDepartmentRequest) ParentUUID() (*uuid.UUID, error) {
	return parseOptionalUUID(r.ParentID)
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type DepartmentResponse struct {
	ID         string  `json:"id"`
	RootID     string  `json:"root_id"`
	ParentID   *string `json:"parent_id"`
	Name       string  `json:"name"`
	Level      int     `json:"level"`
	LeftIndex  int     `json:"left_index"`
	RightIndex int     `json:"right_index"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func NewDepartmentResponse(d *department.Department) DepartmentResponse {
	var parentID *string
	if d.ParentID != nil {
		s := d.ParentID.String()
		parentID = &s
	}
	return DepartmentResponse{
		ID:         d.ID.String(),
		RootID:     d.RootID.String(),
		ParentID:   parentID,
		Name:       d.Name,
		Level:      d.Level,
		LeftIndex:  d.LeftIndex,
		RightIndex: d.RightIndex,
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
}

func NewDepartmentListResponse(list []department.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(list))
	for i := range list {
		out = append(out, NewDepartmentResponse(&list[i]))
	}
	return out
}
