package panel

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/roster/internal/client/backend"
	"github.com/UnknownOlympus/roster/internal/models"
	"github.com/UnknownOlympus/roster/internal/session"
	"github.com/gorilla/mux"
)

const imageField = "f_Image"

// multipartOverhead is the room left for the text fields next to the image.
const multipartOverhead = 1 << 20

func (p *Panel) newEmployeeForm(w http.ResponseWriter, r *http.Request) {
	data := p.formPage(r, "form.create_title", models.EmployeeForm{}, "/employees", false)
	p.render(w, r, http.StatusOK, pageForm, data)
}

func (p *Panel) editEmployeeForm(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	key := mux.Vars(r)["key"]

	emp, err := p.backend.WithSession(sess).GetEmployee(r.Context(), key)
	if err != nil {
		var apiErr *backend.APIError
		switch {
		case errors.Is(err, backend.ErrUnauthorized):
			p.endSession(w, r)
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
			redirect(w, r, "/dashboard/employees", withFlash(nil, flashError, "flash.not_found", ""))
		default:
			p.log.ErrorContext(r.Context(), "Failed to fetch employee", "key", key, "error", err)
			errKey, detail := backendFlash(err, "flash.fetch_failed")
			redirect(w, r, "/dashboard/employees", withFlash(nil, flashError, errKey, detail))
		}
		return
	}

	data := p.formPage(r, "form.edit_title", models.FormFromEmployee(emp), "/employees/"+key, true)
	p.render(w, r, http.StatusOK, pageForm, data)
}

func (p *Panel) createEmployee(w http.ResponseWriter, r *http.Request) {
	p.submitEmployee(w, r, "")
}

func (p *Panel) updateEmployee(w http.ResponseWriter, r *http.Request) {
	p.submitEmployee(w, r, mux.Vars(r)["key"])
}

// submitEmployee handles both form screens. An empty key is a create.
func (p *Panel) submitEmployee(w http.ResponseWriter, r *http.Request, key string) {
	sess, _ := session.FromContext(r.Context())
	isEdit := key != ""
	action, titleKey, operation := "/employees", "form.create_title", "create"
	if isEdit {
		action, titleKey, operation = "/employees/"+key, "form.edit_title", "update"
	}

	r.Body = http.MaxBytesReader(w, r.Body, p.cfg.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(p.cfg.MaxUploadBytes + multipartOverhead); err != nil {
		p.log.WarnContext(r.Context(), "Failed to parse employee form", "error", err)
		data := p.formPage(r, titleKey, p.cachedForm(sess, key), action, isEdit)
		status := http.StatusBadRequest
		data.Error = "form.invalid"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
			data.Error, data.Detail = "flash.image_too_large", p.uploadLimit()
		}
		p.render(w, r, status, pageForm, data)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	form, err := models.DecodeEmployeeForm(r.PostForm)
	if err != nil {
		p.log.WarnContext(r.Context(), "Failed to decode employee form", "error", err)
	}
	data := p.formPage(r, titleKey, form, action, isEdit)
	data.FormErrors = p.formErrors(data.Lang, form.Validate())

	image, uploadErr := p.readUpload(r)
	switch {
	case uploadErr != nil:
		data.FormErrors[imageField] = p.localizer.GetWithData(data.Lang, uploadErr.key,
			map[string]interface{}{"limit": uploadErr.detail})
		data.Error, data.Detail = uploadErr.key, uploadErr.detail
	case image == nil && !isEdit:
		data.FormErrors[imageField] = p.localizer.Get(data.Lang, "form.image_required")
	}

	if len(data.FormErrors) > 0 {
		if data.Error == "" {
			data.Error = "form.invalid"
		}
		p.metrics.Actions.WithLabelValues(operation, "rejected").Inc()
		p.render(w, r, http.StatusUnprocessableEntity, pageForm, data)
		return
	}

	if image != nil {
		p.log.DebugContext(r.Context(), "Employee image attached",
			"filename", image.Filename, "content_type", image.ContentType, "bytes", image.Size())
	}

	client := p.backend.WithSession(sess)
	var saved models.Employee
	if isEdit {
		saved, err = client.UpdateEmployee(r.Context(), key, form, image)
	} else {
		saved, err = client.CreateEmployee(r.Context(), form, image)
	}
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			p.endSession(w, r)
			return
		}
		p.metrics.Actions.WithLabelValues(operation, "failed").Inc()
		p.log.ErrorContext(r.Context(), "Failed to save employee", "operation", operation, "key", key, "error", err)

		data.Error, data.Detail = backendFlash(err, "flash."+operation+"_failed")
		if strings.Contains(strings.ToLower(backend.Message(err)), "image") {
			data.Error, data.Detail = "flash.only_images", ""
		}
		p.render(w, r, saveFailureStatus(err), pageForm, data)
		return
	}

	p.metrics.Actions.WithLabelValues(operation, "ok").Inc()
	p.log.InfoContext(r.Context(), "Employee saved", "operation", operation, "key", saved.Key, "username", sess.Username)

	if saved.Key != "" {
		if view, ok := p.views.Get(sess.ID); ok {
			view.Upsert(saved)
		}
	}

	flash := "flash.created"
	if isEdit {
		flash = "flash.updated"
	}
	redirect(w, r, "/dashboard/employees", withFlash(nil, flashMessage, flash, ""))
}

// cachedForm prefills the edit screen from the mounted list when the submitted
// body could not be read. It is empty for a create or an unknown key.
func (p *Panel) cachedForm(sess *session.Session, key string) models.EmployeeForm {
	if key == "" || sess == nil {
		return models.EmployeeForm{}
	}
	view, ok := p.views.Get(sess.ID)
	if !ok {
		return models.EmployeeForm{}
	}
	emp, ok := view.Get(key)
	if !ok {
		return models.EmployeeForm{}
	}
	return models.FormFromEmployee(emp)
}

func (p *Panel) formPage(r *http.Request, titleKey string, form models.EmployeeForm, action string, isEdit bool) pageData {
	data := p.newPageData(r, titleKey)
	if sess, ok := session.FromContext(r.Context()); ok {
		data.Username = sess.Username
	}
	data.Form = form
	data.FormErrors = map[string]string{}
	data.FormAction = action
	data.IsEdit = isEdit
	data.Designations = models.AllDesignations()
	data.Genders = models.AllGenders()
	data.Courses = models.AllCourses()
	return data
}

// formErrors translates validation failures, one message per field.
func (p *Panel) formErrors(lang string, err error) map[string]string {
	messages := map[string]string{}
	var formErr *models.FormError
	if !errors.As(err, &formErr) {
		return messages
	}
	for _, field := range formErr.Fields {
		if _, seen := messages[field.Field]; seen {
			continue
		}
		messages[field.Field] = p.localizer.Get(lang, "validation."+field.Rule)
	}
	return messages
}

type uploadError struct {
	key    string
	detail string
}

// readUpload returns nil without error when no file was chosen.
func (p *Panel) readUpload(r *http.Request) (*backend.Upload, *uploadError) {
	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &uploadError{key: "flash.image_empty"}
	}
	defer file.Close()

	if header.Filename == "" && header.Size == 0 {
		return nil, nil
	}

	upload, err := backend.NewUpload(header.Filename, header.Header.Get("Content-Type"), file, p.cfg.MaxUploadBytes)
	switch {
	case err == nil:
		return upload, nil
	case errors.Is(err, backend.ErrNotImage):
		return nil, &uploadError{key: "flash.only_images"}
	case errors.Is(err, backend.ErrUploadTooLarge):
		return nil, &uploadError{key: "flash.image_too_large", detail: p.uploadLimit()}
	case errors.Is(err, backend.ErrEmptyUpload):
		return nil, &uploadError{key: "flash.image_empty"}
	default:
		p.log.WarnContext(r.Context(), "Failed to read upload", "error", err)
		return nil, &uploadError{key: "flash.image_empty"}
	}
}

func (p *Panel) uploadLimit() string {
	const mib = 1 << 20
	if p.cfg.MaxUploadBytes >= mib && p.cfg.MaxUploadBytes%mib == 0 {
		return strconv.FormatInt(p.cfg.MaxUploadBytes/mib, 10) + " MB"
	}
	return strconv.FormatInt(p.cfg.MaxUploadBytes, 10) + " B"
}

// saveFailureStatus is 422 when the backend rejected the submission and 502
// when it failed to process it.
func saveFailureStatus(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
