// Package api is the typed HTTP client for the case-management backend. It
// is the only place that knows the wire shapes; everything above it works
// with models and the apperrors taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/delacruzpj/deskhub_client/internal/apperrors"
	"github.com/delacruzpj/deskhub_client/internal/config"
	"github.com/delacruzpj/deskhub_client/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: cfg.APIBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger,
	}
}

// Login exchanges credentials for a session. A 4xx from the backend becomes
// an AuthError carrying the backend's message.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*models.Session, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("api: marshal login request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("api: build login request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &apperrors.AuthError{Message: fmt.Sprintf("failed to reach the server: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.AuthError{Message: readErrorMessage(resp.Body, "login failed")}
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("api: decode login response: %w", err)
	}
	return sessionFromAuthResponse(auth)
}

// Signup registers a new account. The valid-ID scan goes up as a multipart
// file part alongside the form fields.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*models.Session, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":                req.Name,
		"dob":                 req.DOB,
		"city":                req.City,
		"barangayComplainant": req.BarangayComplainant,
		"contact_num":         req.ContactNum,
		"password":            req.Password,
		"role":                req.Role,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("api: write signup field %s: %w", name, err)
		}
	}
	if len(req.ValidID.Content) > 0 {
		part, err := mw.CreateFormFile("valid_id", req.ValidID.Filename)
		if err != nil {
			return nil, fmt.Errorf("api: create valid_id part: %w", err)
		}
		if _, err := part.Write(req.ValidID.Content); err != nil {
			return nil, fmt.Errorf("api: write valid_id part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("api: finalize signup form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/signup", &buf)
	if err != nil {
		return nil, fmt.Errorf("api: build signup request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &apperrors.AuthError{Message: fmt.Sprintf("failed to reach the server: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.AuthError{Message: readErrorMessage(resp.Body, "signup failed")}
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("api: decode signup response: %w", err)
	}
	return sessionFromAuthResponse(auth)
}

// ReportsByReporter lists the reports a reporter filed. A 404 is a valid
// empty list, not an error.
func (c *Client) ReportsByReporter(ctx context.Context, token, reporterID string) ([]*models.Report, error) {
	return c.listReports(ctx, token, "/reports/reporterId/"+reporterID)
}

// ReportsByAgent lists the reports assigned to an agent's desk.
func (c *Client) ReportsByAgent(ctx context.Context, token, agentID string) ([]*models.Report, error) {
	return c.listReports(ctx, token, "/reports/agent/"+agentID)
}

func (c *Client) listReports(ctx context.Context, token, path string) ([]*models.Report, error) {
	resp, err := c.send(ctx, http.MethodGet, path, token, nil, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// a new account with no reports yet
		return []*models.Report{}, nil
	}
	if err := c.checkRead(resp); err != nil {
		return nil, err
	}

	var dtos []reportDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, &apperrors.FetchError{Message: fmt.Sprintf("malformed report list: %v", err)}
	}
	return reportsFromDTO(dtos)
}

// CreateReport files a new case and returns the server-assigned record.
func (c *Client) CreateReport(ctx context.Context, token string, req CreateReportRequest) (*models.Report, error) {
	return c.mutateReport(ctx, http.MethodPost, "/reports", token, req)
}

// SetReportStatus patches a single report's status and returns the
// server-confirmed record.
func (c *Client) SetReportStatus(ctx context.Context, token, id string, status models.Status) (*models.Report, error) {
	return c.mutateReport(ctx, http.MethodPatch, "/reports/"+id, token, statusPatchRequest{Status: string(status)})
}

// UpdateReport replaces a report's full editable record.
func (c *Client) UpdateReport(ctx context.Context, token, id string, req UpdateReportRequest) (*models.Report, error) {
	return c.mutateReport(ctx, http.MethodPut, "/reports/"+id, token, req)
}

// DeleteReport permanently removes a report.
func (c *Client) DeleteReport(ctx context.Context, token, id string) error {
	resp, err := c.send(ctx, http.MethodDelete, "/reports/"+id, token, nil, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkWrite(resp)
}

// UpdateProfile replaces the account's profile fields and returns the
// refreshed session record.
func (c *Client) UpdateProfile(ctx context.Context, token, userID string, req UpdateProfileRequest) (*models.Session, error) {
	return c.mutateAccount(ctx, http.MethodPut, "/users/"+userID, token, req)
}

// ChangePassword replaces the account credential and returns the refreshed
// session record.
func (c *Client) ChangePassword(ctx context.Context, token, userID, password string) (*models.Session, error) {
	return c.mutateAccount(ctx, http.MethodPatch, "/users/"+userID, token, changePasswordRequest{Password: password})
}

func (c *Client) mutateReport(ctx context.Context, method, path, token string, payload any) (*models.Report, error) {
	resp, err := c.send(ctx, method, path, token, payload, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkWrite(resp); err != nil {
		return nil, err
	}

	var dto reportDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, &apperrors.MutationError{Message: fmt.Sprintf("malformed report record: %v", err)}
	}
	return reportFromDTO(dto)
}

func (c *Client) mutateAccount(ctx context.Context, method, path, token string, payload any) (*models.Session, error) {
	resp, err := c.send(ctx, method, path, token, payload, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkWrite(resp); err != nil {
		return nil, err
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, &apperrors.MutationError{Message: fmt.Sprintf("malformed account record: %v", err)}
	}
	return sessionFromAuthResponse(auth)
}

// send issues one request. Mutations carry an X-Request-ID so retries are
// traceable on the backend side.
func (c *Client) send(ctx context.Context, method, path, token string, payload any, mutation bool) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("api: marshal %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: build %s %s request: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if mutation {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Warn("Request to backend failed")
		if mutation {
			return nil, &apperrors.MutationError{Message: fmt.Sprintf("failed to reach the server: %v", err)}
		}
		return nil, &apperrors.FetchError{Message: fmt.Sprintf("failed to reach the server: %v", err)}
	}
	return resp, nil
}

// checkRead maps a read response status: 401/403 route back through login,
// any other non-2xx is a FetchError.
func (c *Client) checkRead(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &apperrors.AuthError{Message: readErrorMessage(resp.Body, "session expired")}
	}
	return &apperrors.FetchError{
		StatusCode: resp.StatusCode,
		Message:    readErrorMessage(resp.Body, "request failed"),
	}
}

// checkWrite maps a write response status the same way, into MutationError.
func (c *Client) checkWrite(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &apperrors.AuthError{Message: readErrorMessage(resp.Body, "session expired")}
	}
	return &apperrors.MutationError{
		StatusCode: resp.StatusCode,
		Message:    readErrorMessage(resp.Body, "request failed"),
	}
}

func readErrorMessage(body io.Reader, fallback string) string {
	var er errorResponse
	if err := json.NewDecoder(body).Decode(&er); err == nil {
		if msg := er.text(); msg != "" {
			return msg
		}
	}
	return fallback
}
