package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/UnknownOlympus/roster/internal/models"
	"github.com/UnknownOlympus/roster/internal/session"
)

// Session is a backend client bound to one signed-in user. Every request
// carries that user's bearer token.
type Session struct {
	client *Client
	token  string
}

// WithSession scopes the client to sess. A nil session yields a client whose
// calls fail with ErrUnauthorized.
func (c *Client) WithSession(sess *session.Session) *Session {
	scoped := &Session{client: c}
	if sess != nil {
		scoped.token = sess.Token
	}
	return scoped
}

func (s *Session) do(ctx context.Context, r request, out any) error {
	if s.token == "" {
		return fmt.Errorf("%w: no auth token", ErrUnauthorized)
	}
	r.token = s.token
	return s.client.do(ctx, r, out)
}

// ListEmployees returns the full collection in backend order.
func (s *Session) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := s.do(ctx, request{operation: "list", method: http.MethodGet, path: "/api/employees"}, &employees); err != nil {
		return nil, err
	}
	if employees == nil {
		employees = []models.Employee{}
	}
	return employees, nil
}

// GetEmployee fetches one record for the edit screen.
func (s *Session) GetEmployee(ctx context.Context, key string) (models.Employee, error) {
	var emp models.Employee
	err := s.do(ctx, request{operation: "get", method: http.MethodGet, path: employeePath(key)}, &emp)
	if err != nil {
		return models.Employee{}, err
	}
	return emp, nil
}

// CreateEmployee submits a new record. The returned record is empty when the
// backend did not echo it back.
func (s *Session) CreateEmployee(ctx context.Context, form models.EmployeeForm, image *Upload) (models.Employee, error) {
	body, contentType, err := multipartBody(form, image, false)
	if err != nil {
		return models.Employee{}, err
	}

	var reply employeeReply
	err = s.do(ctx, request{
		operation:   "create",
		method:      http.MethodPost,
		path:        "/api/employees",
		body:        body,
		contentType: contentType,
	}, &reply)
	if err != nil {
		return models.Employee{}, err
	}
	return reply.record(), nil
}

// UpdateEmployee submits an edit. Without a new image the previous image path
// is sent back as existingImage.
func (s *Session) UpdateEmployee(
	ctx context.Context,
	key string,
	form models.EmployeeForm,
	image *Upload,
) (models.Employee, error) {
	body, contentType, err := multipartBody(form, image, true)
	if err != nil {
		return models.Employee{}, err
	}

	var reply employeeReply
	err = s.do(ctx, request{
		operation:   "update",
		method:      http.MethodPut,
		path:        employeePath(key),
		body:        body,
		contentType: contentType,
	}, &reply)
	if err != nil {
		return models.Employee{}, err
	}
	return reply.record(), nil
}

// ToggleStatus sets the activity flag and returns the updated record with
// fresh counts.
func (s *Session) ToggleStatus(ctx context.Context, key string, isActive bool) (models.StatusChange, error) {
	payload, err := json.Marshal(map[string]bool{"isActive": isActive})
	if err != nil {
		return models.StatusChange{}, fmt.Errorf("failed to encode toggle request: %w", err)
	}

	var change models.StatusChange
	err = s.do(ctx, request{
		operation:   "toggle",
		method:      http.MethodPatch,
		path:        employeePath(key) + "/toggle-status",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
	}, &change)
	if err != nil {
		return models.StatusChange{}, err
	}
	return change, nil
}

// DeleteEmployee removes a record. Counts are nil when the backend sent none.
func (s *Session) DeleteEmployee(ctx context.Context, key string) (*models.Counts, error) {
	var reply struct {
		Message string         `json:"message"`
		Counts  *models.Counts `json:"counts"`
	}
	if err := s.do(ctx, request{operation: "delete", method: http.MethodDelete, path: employeePath(key)}, &reply); err != nil {
		return nil, err
	}
	return reply.Counts, nil
}

func employeePath(key string) string {
	return "/api/employees/" + url.PathEscape(key)
}

// employeeReply accepts both a bare record and {"employee": {...}}.
type employeeReply struct {
	models.Employee
	Wrapped *models.Employee `json:"employee"`
}

func (r employeeReply) record() models.Employee {
	if r.Wrapped != nil {
		return *r.Wrapped
	}
	return r.Employee
}

func multipartBody(form models.EmployeeForm, image *Upload, edit bool) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, field := range form.Fields() {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", field.Name, err)
		}
	}

	switch {
	case image != nil:
		if err := image.writePart(writer, "f_Image"); err != nil {
			return nil, "", err
		}
	case edit:
		if err := writer.WriteField("existingImage", form.ExistingImage); err != nil {
			return nil, "", fmt.Errorf("failed to write form field existingImage: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
