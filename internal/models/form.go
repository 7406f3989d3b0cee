package models

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/form"
	"github.com/go-playground/validator/v10"
)

var (
	formDecoder = form.NewDecoder()
	validate    = newValidator()
)

// EmployeeForm holds the structured fields of the create and edit screens.
// The form tags are the multipart field names the backend expects.
type EmployeeForm struct {
	Name          string      `form:"f_Name"        validate:"required"`
	Email         string      `form:"f_Email"       validate:"required,email"`
	Mobile        string      `form:"f_Mobile"      validate:"required,numeric"`
	Designation   Designation `form:"f_Designation" validate:"required,oneof=HR Manager Sales"`
	Gender        Gender      `form:"f_Gender"      validate:"required,oneof=Male Female"`
	Courses       []Course    `form:"f_Course"      validate:"required,min=1,dive,oneof=MCA BCA BSC"`
	ExistingImage string      `form:"existingImage" validate:"-"`
}

// FormField is one name/value pair of an outgoing multipart body.
type FormField struct {
	Name  string
	Value string
}

// FieldError names a form field and the validation rule it broke.
type FieldError struct {
	Field string
	Rule  string
}

// FormError is returned when an EmployeeForm fails validation.
type FormError struct {
	Fields []FieldError
}

func (e *FormError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", field.Field, field.Rule))
	}
	return "invalid employee form: " + strings.Join(parts, ", ")
}

// DecodeEmployeeForm decodes submitted form values into an EmployeeForm and trims
// free-text fields. It does not validate.
func DecodeEmployeeForm(values url.Values) (EmployeeForm, error) {
	var dto EmployeeForm
	if err := formDecoder.Decode(&dto, values); err != nil {
		return EmployeeForm{}, fmt.Errorf("failed to decode employee form: %w", err)
	}
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.TrimSpace(dto.Email)
	dto.Mobile = strings.TrimSpace(dto.Mobile)
	dto.ExistingImage = strings.TrimSpace(dto.ExistingImage)

	return dto, nil
}

// FormFromEmployee prefills the edit screen from a fetched record. Values the
// form cannot offer are left unselected so that saving asks for a new choice.
func FormFromEmployee(emp Employee) EmployeeForm {
	courses := make([]Course, 0, len(emp.Courses))
	for _, course := range emp.Courses {
		if course.IsValid() {
			courses = append(courses, course)
		}
	}

	form := EmployeeForm{
		Name:          emp.Name,
		Email:         emp.Email,
		Mobile:        emp.Mobile.String(),
		Designation:   emp.Designation,
		Gender:        emp.Gender,
		Courses:       courses,
		ExistingImage: emp.Image,
	}
	if !form.Designation.IsValid() {
		form.Designation = ""
	}
	if !form.Gender.IsValid() {
		form.Gender = ""
	}
	return form
}

// Validate checks the form against its validation tags.
func (f EmployeeForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("failed to validate employee form: %w", err)
	}

	formErr := &FormError{Fields: make([]FieldError, 0, len(validationErrs))}
	for _, fieldErr := range validationErrs {
		name := fieldErr.Field()
		// dive errors are reported as f_Course[1]
		if idx := strings.IndexByte(name, '['); idx > 0 {
			name = name[:idx]
		}
		formErr.Fields = append(formErr.Fields, FieldError{Field: name, Rule: fieldErr.Tag()})
	}

	return formErr
}

// HasCourse is used by the form templates to check boxes.
func (f EmployeeForm) HasCourse(course Course) bool {
	for _, c := range f.Courses {
		if c == course {
			return true
		}
	}
	return false
}

// Fields returns the structured fields in multipart order, one f_Course pair
// per selected course. existingImage is not included.
func (f EmployeeForm) Fields() []FormField {
	fields := []FormField{
		{Name: "f_Name", Value: f.Name},
		{Name: "f_Email", Value: f.Email},
		{Name: "f_Mobile", Value: f.Mobile},
		{Name: "f_Designation", Value: string(f.Designation)},
		{Name: "f_Gender", Value: string(f.Gender)},
	}
	for _, course := range f.Courses {
		fields = append(fields, FormField{Name: "f_Course", Value: string(course)})
	}

	return fields
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}
