package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/orgtree/modules/department/presentation/controllers/dtos"
	"github.com/iota-uz/orgtree/pkg/configuration"
)

type apiError struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

type deptAPIClient struct {
	baseURL         *url.URL
	tenantID        uuid.UUID
	httpClient      *http.Client
	requestIDHeader string
	tenantIDHeader  string
}

func newDeptAPIClient(baseURL string, tenantID uuid.UUID) (*deptAPIClient, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = configuration.Use().Origin
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, withCode(exitUsage, fmt.Errorf("invalid --base-url: %q", baseURL))
	}
	return &deptAPIClient{
		baseURL:         u,
		tenantID:        tenantID,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		requestIDHeader: configuration.Use().RequestIDHeader,
		tenantIDHeader:  configuration.Use().TenantIDHeader,
	}, nil
}

func (c *deptAPIClient) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, out any) (int, *apiError, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return 0, nil, withCode(exitValidation, fmt.Errorf("json marshal request: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, nil, withCode(exitAPI, fmt.Errorf("http request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}
	req.Header.Set(c.tenantIDHeader, c.tenantID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, withCode(exitAPI, fmt.Errorf("http do: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, withCode(exitAPI, fmt.Errorf("http read: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && strings.TrimSpace(apiErr.Code) != "" {
			return resp.StatusCode, &apiErr, nil
		}
		return resp.StatusCode, nil, withCode(exitAPI, fmt.Errorf("http status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	if out == nil {
		return resp.StatusCode, nil, nil
	}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, nil, withCode(exitAPI, fmt.Errorf("json unmarshal response: %w", err))
		}
	}
	return resp.StatusCode, nil, nil
}

func (c *deptAPIClient) listAll(ctx context.Context) ([]dtos.DepartmentResponse, error) {
	var list []dtos.DepartmentResponse
	_, apiErr, err := c.doJSON(ctx, http.MethodGet, "/api/v1/departments", nil, nil, &list)
	if err != nil {
		return nil, err
	}
	if apiErr != nil {
		return nil, withCode(exitAPI, fmt.Errorf("list departments failed: %s (%s)", apiErr.Message, apiErr.Code))
	}
	return list, nil
}

func (c *deptAPIClient) create(ctx context.Context, name string, parentID *string) (*dtos.DepartmentResponse, error) {
	req := map[string]any{"name": name}
	if parentID != nil {
		req["parent_id"] = *parentID
	}
	var created dtos.DepartmentResponse
	_, apiErr, err := c.doJSON(ctx, http.MethodPost, "/api/v1/departments", nil, req, &created)
	if err != nil {
		return nil, err
	}
	if apiErr != nil {
		return nil, withCode(exitAPI, fmt.Errorf("create %q failed: %s (%s)", name, apiErr.Message, apiErr.Code))
	}
	return &created, nil
}
