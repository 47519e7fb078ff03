package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/orgtree/modules/department/domain/department"
	"github.com/iota-uz/orgtree/modules/department/presentation/controllers/dtos"
	"github.com/iota-uz/orgtree/modules/department/services"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/httpapi"
	"github.com/iota-uz/orgtree/pkg/middleware"
)

// DepartmentAPIController exposes the department forest over JSON. Tenant
// identity arrives through the tenant header middleware; requests without it
// are rejected before any service call.
type DepartmentAPIController struct {
	departments *services.DepartmentService
	apiPrefix   string
}

func NewDepartmentAPIController(departments *services.DepartmentService) *DepartmentAPIController {
	return &DepartmentAPIController{
		departments: departments,
		apiPrefix:   "/api/v1",
	}
}

func (c *DepartmentAPIController) Key() string {
	return c.apiPrefix
}

func (c *DepartmentAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	// Fixed paths register before {id} so mux does not swallow them.
	api.HandleFunc("/departments/roots", c.ListRoots).Methods(http.MethodGet)
	api.HandleFunc("/departments", c.List).Methods(http.MethodGet)
	api.HandleFunc("/departments", c.Create).Methods(http.MethodPost)
	api.HandleFunc("/departments/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}", c.Rename).Methods(http.MethodPatch)
	api.HandleFunc("/departments/{id}", c.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/departments/{id}:move", c.Move).Methods(http.MethodPost)
	api.HandleFunc("/departments/{id}/parent", c.GetParent).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}/children", c.ListChildren).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}/ancestors", c.ListAncestors).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}/descendants", c.ListDescendants).Methods(http.MethodGet)
}

func (c *DepartmentAPIController) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req dtos.CreateDepartmentRequest
	if !decodeAndValidate(w, r, requestID, &req) {
		return
	}
	parentID, err := req.ParentUUID()
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeValidation, "parent_id is not a valid uuid")
		return
	}

	created, err := c.departments.Create(r.Context(), tenantID, services.CreateDepartmentInput{
		Name:     req.Name,
		ParentID: parentID,
	})
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, dtos.NewDepartmentResponse(created))
}

func (c *DepartmentAPIController) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	d, err := c.departments.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewDepartmentResponse(d))
}

func (c *DepartmentAPIController) Rename(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req dtos.RenameDepartmentRequest
	if !decodeAndValidate(w, r, requestID, &req) {
		return
	}

	renamed, err := c.departments.Rename(r.Context(), tenantID, id, req.Name)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewDepartmentResponse(renamed))
}

func (c *DepartmentAPIController) Move(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req dtos.MoveDepartmentRequest
	if !decodeAndValidate(w, r, requestID, &req) {
		return
	}
	parentID, err := req.ParentUUID()
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeValidation, "parent_id is not a valid uuid")
		return
	}

	moved, err := c.departments.Move(r.Context(), tenantID, id, parentID)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewDepartmentResponse(moved))
}

func (c *DepartmentAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := c.departments.Delete(r.Context(), tenantID, id); err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *DepartmentAPIController) List(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var (
		list []department.Department
		err  error
	)
	if query := r.URL.Query().Get("q"); query != "" {
		list, err = c.departments.SearchByName(r.Context(), tenantID, query)
	} else {
		list, err = c.departments.All(r.Context(), tenantID)
	}
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewDepartmentListResponse(list))
}

func (c *DepartmentAPIController) ListRoots(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	roots, err := c.departments.Roots(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewDepartmentListResponse(roots))
}

func (c *DepartmentAPIController) GetParent(w http.ResponseWriter, r *http.Request) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	parent, err := c.departments.Parent(r.Context(), tenantID, id)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewDepartmentResponse(parent))
}

func (c *DepartmentAPIController) ListChildren(w http.ResponseWriter, r *http.Request) {
	c.listRelated(w, r, c.departments.Children)
}

func (c *DepartmentAPIController) ListAncestors(w http.ResponseWriter, r *http.Request) {
	c.listRelated(w, r, c.departments.Ancestors)
}

func (c *DepartmentAPIController) ListDescendants(w http.ResponseWriter, r *http.Request) {
	c.listRelated(w, r, c.departments.Descendants)
}

func (c *DepartmentAPIController) listRelated(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, tenantID, id uuid.UUID) ([]department.Department, error),
) {
	tenantID, requestID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	list, err := fetch(r.Context(), tenantID, id)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewDepartmentListResponse(list))
}

func requireTenant(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	requestID := middleware.UseRequestID(r.Context())
	tenantID, err := composables.UseTenantID(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeNoTenant, "tenant header is required")
		return uuid.Nil, requestID, false
	}
	return tenantID, requestID, true
}

func pathID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeValidation, "id is not a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, requestID string, req interface {
	Validate() error
}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeValidation, "invalid request body")
		return false
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeValidation, err.Error())
		return false
	}
	return true
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	_ = httpapi.WriteError(w, status, requestID, code, message)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Status >= http.StatusInternalServerError {
			middleware.UseLogger(r.Context()).WithError(err).Error("department request failed")
		}
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	middleware.UseLogger(r.Context()).WithError(err).Error("department request failed")
	writeAPIError(w, http.StatusInternalServerError, requestID, services.CodeInternal, "internal error")
}
