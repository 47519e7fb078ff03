package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/department/infrastructure/persistence"
	"github.com/iota-uz/orgtree/modules/department/presentation/controllers"
	"github.com/iota-uz/orgtree/modules/department/presentation/controllers/dtos"
	"github.com/iota-uz/orgtree/modules/department/services"
	"github.com/iota-uz/orgtree/pkg/configuration"
	"github.com/iota-uz/orgtree/pkg/eventbus"
	"github.com/iota-uz/orgtree/pkg/middleware"
)

type apiTest struct {
	router   *mux.Router
	tenantID uuid.UUID
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	repo := persistence.NewMemoryDepartmentRepository()
	svc := services.NewDepartmentService(repo, eventbus.NewEventPublisher(logger))

	router := mux.NewRouter()
	router.Use(middleware.RequestID(), middleware.TenantFromHeader())
	controllers.NewDepartmentAPIController(svc).Register(router)

	return &apiTest{router: router, tenantID: uuid.New()}
}

func (a *apiTest) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(configuration.Use().TenantIDHeader, a.tenantID.String())
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *apiTest) createDepartment(t *testing.T, name string, parentID *string) dtos.DepartmentResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/departments", map[string]any{
		"name":      name,
		"parent_id": parentID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var envelope struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.RequestID)
	return envelope.Code, envelope.Message
}

func TestAPI_CreateAndGet(t *testing.T) {
	a := newAPITest(t)

	root := a.createDepartment(t, "Engineering", nil)
	require.Equal(t, root.ID, root.RootID)
	require.Nil(t, root.ParentID)
	require.Equal(t, 1, root.LeftIndex)
	require.Equal(t, 2, root.RightIndex)

	child := a.createDepartment(t, "Platform", &root.ID)
	require.Equal(t, root.ID, *child.ParentID)
	require.Equal(t, 1, child.Level)

	rec := a.do(t, http.MethodGet, "/api/v1/departments/"+child.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, child.ID, got.ID)
}

func TestAPI_MissingTenantHeader(t *testing.T) {
	a := newAPITest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/departments", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	code, _ := decodeError(t, rec)
	require.Equal(t, services.CodeNoTenant, code)
}

func TestAPI_CreateValidation(t *testing.T) {
	a := newAPITest(t)

	rec := a.do(t, http.MethodPost, "/api/v1/departments", map[string]any{"name": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	code, _ := decodeError(t, rec)
	require.Equal(t, services.CodeValidation, code)

	rec = a.do(t, http.MethodPost, "/api/v1/departments", map[string]any{
		"name":      "Orphan",
		"parent_id": uuid.New().String(),
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	code, _ = decodeError(t, rec)
	require.Equal(t, services.CodeParentNotFound, code)
}

func TestAPI_Rename(t *testing.T) {
	a := newAPITest(t)

	root := a.createDepartment(t, "Engineering", nil)

	rec := a.do(t, http.MethodPatch, "/api/v1/departments/"+root.ID, map[string]any{"name": "R&D"})
	require.Equal(t, http.StatusOK, rec.Code)
	var renamed dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renamed))
	require.Equal(t, "R&D", renamed.Name)

	rec = a.do(t, http.MethodPatch, "/api/v1/departments/"+uuid.NewString(), map[string]any{"name": "Ghost"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	code, _ := decodeError(t, rec)
	require.Equal(t, services.CodeNotFound, code)
}

func TestAPI_Move(t *testing.T) {
	a := newAPITest(t)

	root := a.createDepartment(t, "Engineering", nil)
	platform := a.createDepartment(t, "Platform", &root.ID)
	product := a.createDepartment(t, "Product", &root.ID)

	rec := a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/departments/%s:move", platform.ID), map[string]any{
		"parent_id": product.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var moved dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moved))
	require.Equal(t, product.ID, *moved.ParentID)
	require.Equal(t, 2, moved.Level)

	// Promotion to root via null parent_id.
	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/departments/%s:move", platform.ID), map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moved))
	require.Nil(t, moved.ParentID)
	require.Equal(t, 0, moved.Level)
	require.Equal(t, moved.ID, moved.RootID)
}

func TestAPI_MoveCycleRejected(t *testing.T) {
	a := newAPITest(t)

	root := a.createDepartment(t, "Engineering", nil)
	platform := a.createDepartment(t, "Platform", &root.ID)
	infra := a.createDepartment(t, "Infra", &platform.ID)

	rec := a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/departments/%s:move", platform.ID), map[string]any{
		"parent_id": infra.ID,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	code, _ := decodeError(t, rec)
	require.Equal(t, services.CodeCycle, code)
}

func TestAPI_Delete(t *testing.T) {
	a := newAPITest(t)

	root := a.createDepartment(t, "Engineering", nil)
	platform := a.createDepartment(t, "Platform", &root.ID)
	a.createDepartment(t, "Infra", &platform.ID)

	rec := a.do(t, http.MethodDelete, "/api/v1/departments/"+platform.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/departments/"+platform.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/departments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestAPI_TreeQueries(t *testing.T) {
	a := newAPITest(t)

	root := a.createDepartment(t, "Engineering", nil)
	platform := a.createDepartment(t, "Platform", &root.ID)
	infra := a.createDepartment(t, "Infra", &platform.ID)
	a.createDepartment(t, "Sales", nil)

	rec := a.do(t, http.MethodGet, "/api/v1/departments/"+infra.ID+"/ancestors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ancestors []dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ancestors))
	require.Len(t, ancestors, 2)
	require.Equal(t, root.ID, ancestors[0].ID)
	require.Equal(t, platform.ID, ancestors[1].ID)

	rec = a.do(t, http.MethodGet, "/api/v1/departments/"+root.ID+"/descendants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var descendants []dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &descendants))
	require.Len(t, descendants, 2)

	rec = a.do(t, http.MethodGet, "/api/v1/departments/"+root.ID+"/children", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var children []dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &children))
	require.Len(t, children, 1)
	require.Equal(t, platform.ID, children[0].ID)

	rec = a.do(t, http.MethodGet, "/api/v1/departments/roots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var roots []dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roots))
	require.Len(t, roots, 2)

	rec = a.do(t, http.MethodGet, "/api/v1/departments/"+platform.ID+"/parent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var parent dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parent))
	require.Equal(t, root.ID, parent.ID)

	rec = a.do(t, http.MethodGet, "/api/v1/departments/"+root.ID+"/parent", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	code, _ := decodeError(t, rec)
	require.Equal(t, services.CodeNoParent, code)
}

func TestAPI_SearchByName(t *testing.T) {
	a := newAPITest(t)

	root := a.createDepartment(t, "Engineering", nil)
	a.createDepartment(t, "Platform Engineering", &root.ID)
	a.createDepartment(t, "Sales", nil)

	rec := a.do(t, http.MethodGet, "/api/v1/departments?q=engineering", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []dtos.DepartmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
}

func TestAPI_BadUUIDInPath(t *testing.T) {
	a := newAPITest(t)

	rec := a.do(t, http.MethodGet, "/api/v1/departments/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	code, _ := decodeError(t, rec)
	require.Equal(t, services.CodeValidation, code)
}
