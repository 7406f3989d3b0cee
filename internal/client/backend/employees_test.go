package backend_test

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/roster/internal/client/backend"
	"github.com/UnknownOlympus/roster/internal/models"
	"github.com/UnknownOlympus/roster/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

var sampleForm = models.EmployeeForm{
	Name:          "Alice",
	Email:         "alice@corp.io",
	Mobile:        "9876543210",
	Designation:   models.DesignationManager,
	Gender:        models.GenderFemale,
	Courses:       []models.Course{models.CourseMCA, models.CourseBSC},
	ExistingImage: "uploads/old.png",
}

func authed(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
}

func TestSession_ListEmployees(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		authed(t, r)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/employees", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"_id":"k1","f_Id":1,"f_Name":"Alice","f_Email":"a@x.io","f_Mobile":"123",
			 "f_Designation":"HR","f_Gender":"Female","f_Course":["MCA"],"isActive":true,
			 "f_Createdate":"2024-01-02T10:00:00.000Z"},
			{"_id":"k2","f_Id":"2","f_Name":"bob","f_Email":"b@x.io","f_Mobile":456,
			 "f_Designation":"Sales","f_Gender":"Male","f_Course":"BCA","isActive":false,
			 "f_Createdate":"2024-01-03T10:00:00.000Z"}
		]`)
	})

	employees, err := client.WithSession(&session.Session{Token: "tok-1"}).ListEmployees(t.Context())

	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "k1", employees[0].Key)
	assert.Equal(t, models.SequenceID(2), employees[1].ID)
	assert.Equal(t, models.Mobile("456"), employees[1].Mobile)
	assert.Equal(t, models.Courses{models.CourseBCA}, employees[1].Courses)
	assert.True(t, employees[0].IsActive)
}

func TestSession_ListEmployees_Empty(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})

	employees, err := client.WithSession(&session.Session{Token: "tok-1"}).ListEmployees(t.Context())

	require.NoError(t, err)
	assert.NotNil(t, employees)
	assert.Empty(t, employees)
}

func TestSession_GetEmployee(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		authed(t, r)
		assert.Equal(t, "/api/employees/k%2F1", r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, map[string]any{"_id": "k/1", "f_Name": "Alice", "f_Image": "uploads/a.png"})
	})

	emp, err := client.WithSession(&session.Session{Token: "tok-1"}).GetEmployee(t.Context(), "k/1")

	require.NoError(t, err)
	assert.Equal(t, "Alice", emp.Name)
	assert.True(t, emp.HasImage())
}

func TestSession_ToggleStatus(t *testing.T) {
	t.Parallel()

	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		authed(t, r)
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/employees/k2/toggle-status", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"isActive":true}`, string(body))

		writeJSON(w, http.StatusOK, map[string]any{
			"employee": map[string]any{"_id": "k2", "f_Id": 2, "isActive": true},
			"counts":   map[string]int{"total": 2, "active": 2},
		})
	})

	change, err := client.WithSession(&session.Session{Token: "tok-1"}).ToggleStatus(t.Context(), "k2", true)

	require.NoError(t, err)
	assert.Equal(t, "k2", change.Employee.Key)
	assert.True(t, change.Employee.IsActive)
	assert.Equal(t, models.Counts{Total: 2, Active: 2}, change.Counts)
	assert.Equal(t, 1, testutilCount(m, "toggle", "200"))
}

func TestSession_ToggleStatus_ServerError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error toggling status"})
	})

	_, err := client.WithSession(&session.Session{Token: "tok-1"}).ToggleStatus(t.Context(), "k2", true)

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Error toggling status", apiErr.Message)
}

func TestSession_DeleteEmployee(t *testing.T) {
	t.Parallel()

	t.Run("with counts", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			authed(t, r)
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/employees/k1", r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "Employee deleted",
				"counts":  map[string]int{"total": 1, "active": 0},
			})
		})

		counts, err := client.WithSession(&session.Session{Token: "tok-1"}).DeleteEmployee(t.Context(), "k1")

		require.NoError(t, err)
		require.NotNil(t, counts)
		assert.Equal(t, models.Counts{Total: 1, Active: 0}, *counts)
	})

	t.Run("without counts", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"message": "Employee deleted"})
		})

		counts, err := client.WithSession(&session.Session{Token: "tok-1"}).DeleteEmployee(t.Context(), "k1")

		require.NoError(t, err)
		assert.Nil(t, counts)
	})
}

func TestSession_CreateEmployee(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		authed(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/employees", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Alice", r.FormValue("f_Name"))
		assert.Equal(t, "alice@corp.io", r.FormValue("f_Email"))
		assert.Equal(t, "9876543210", r.FormValue("f_Mobile"))
		assert.Equal(t, "Manager", r.FormValue("f_Designation"))
		assert.Equal(t, "Female", r.FormValue("f_Gender"))
		assert.Equal(t, []string{"MCA", "BSC"}, r.MultipartForm.Value["f_Course"])
		assert.NotContains(t, r.MultipartForm.Value, "existingImage")

		file, header, err := r.FormFile("f_Image")
		if assert.NoError(t, err) {
			defer file.Close()
			assert.Equal(t, "avatar.png", header.Filename)
			assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		}

		writeJSON(w, http.StatusCreated, map[string]any{"_id": "k9", "f_Name": "Alice", "isActive": true})
	})

	upload, err := backend.NewUpload("avatar.png", "image/png", bytes.NewReader(pngHeader), 1<<20)
	require.NoError(t, err)

	emp, err := client.WithSession(&session.Session{Token: "tok-1"}).CreateEmployee(t.Context(), sampleForm, upload)

	require.NoError(t, err)
	assert.Equal(t, "k9", emp.Key)
}

func TestSession_UpdateEmployee(t *testing.T) {
	t.Parallel()

	t.Run("keeps existing image", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			authed(t, r)
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/employees/k1", r.URL.Path)
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "uploads/old.png", r.FormValue("existingImage"))
			assert.Empty(t, r.MultipartForm.File["f_Image"])

			writeJSON(w, http.StatusOK, map[string]any{"employee": map[string]any{"_id": "k1", "f_Name": "Alice"}})
		})

		emp, err := client.WithSession(&session.Session{Token: "tok-1"}).UpdateEmployee(t.Context(), "k1", sampleForm, nil)

		require.NoError(t, err)
		assert.Equal(t, "k1", emp.Key)
	})

	t.Run("new image replaces existing", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.NotContains(t, r.MultipartForm.Value, "existingImage")
			assert.Len(t, r.MultipartForm.File["f_Image"], 1)
			w.WriteHeader(http.StatusOK)
		})

		upload, err := backend.NewUpload("new.png", "", bytes.NewReader(pngHeader), 1<<20)
		require.NoError(t, err)

		emp, err := client.WithSession(&session.Session{Token: "tok-1"}).UpdateEmployee(t.Context(), "k1", sampleForm, upload)

		require.NoError(t, err)
		assert.Empty(t, emp.Key, "no record echoed back")
	})

	t.Run("image rejected by server", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Only image files are allowed"})
		})

		_, err := client.WithSession(&session.Session{Token: "tok-1"}).UpdateEmployee(t.Context(), "k1", sampleForm, nil)

		assert.Contains(t, backend.Message(err), "image")
	})
}
