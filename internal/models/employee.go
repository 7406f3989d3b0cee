package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Employee represents an individual employee as returned by the backend.
// Field tags follow the backend wire format, the f_ prefix included.
type Employee struct {
	Key         string      `json:"_id"`               // Opaque server identifier, used for row keys and mutations
	ID          SequenceID  `json:"f_Id"`              // Human-facing sequential ID
	Name        string      `json:"f_Name"`            // Full name of the employee
	Email       string      `json:"f_Email"`           // Email address of the employee
	Mobile      Mobile      `json:"f_Mobile"`          // Mobile number, numeric but held as text
	Designation Designation `json:"f_Designation"`     // Job designation
	Gender      Gender      `json:"f_Gender"`          // Gender of the employee
	Courses     Courses     `json:"f_Course"`          // Ordered list of courses
	Image       string      `json:"f_Image,omitempty"` // Server-relative image path, empty means no image
	IsActive    bool        `json:"isActive"`          // Activity flag, mutable on its own
	CreatedAt   Timestamp   `json:"f_Createdate"`      // Timestamp of when the employee record was created
}

// HasImage reports whether an image was uploaded for the employee.
func (e Employee) HasImage() bool {
	return e.Image != ""
}

// Counts holds the authoritative employee totals reported by the backend.
type Counts struct {
	Total  int `json:"total"`  // Total number of employees
	Active int `json:"active"` // Number of active employees
}

// Inactive is always derived so that Total == Active + Inactive holds.
func (c Counts) Inactive() int {
	return c.Total - c.Active
}

// SequenceID is the sequential employee ID. The backend may encode it
// either as a JSON number or as a numeric string.
type SequenceID int64

// UnmarshalJSON accepts both 42 and "42".
func (s *SequenceID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(data, `"`))
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse employee id %q: %w", raw, err)
	}
	*s = SequenceID(value)
	return nil
}

func (s SequenceID) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// Mobile is a phone number. It is numeric in practice, so the backend
// sometimes sends it unquoted.
type Mobile string

// UnmarshalJSON accepts both a JSON number and a string.
func (m *Mobile) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("failed to parse mobile: %w", err)
		}
		*m = Mobile(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("failed to parse mobile: %w", err)
	}
	*m = Mobile(num.String())
	return nil
}

func (m Mobile) String() string {
	return string(m)
}

// Timestamp is the record creation time. Records written by older backend
// versions carry a bare date or no zone, and some carry an empty value.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// UnmarshalJSON accepts RFC 3339, a zone-less date-time or a bare date.
// Empty and null decode to the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse creation date: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("failed to parse creation date %q", raw)
}

// Courses is the ordered course list. Older records carry a single string.
type Courses []Course

// UnmarshalJSON accepts both ["MCA","BSC"] and "MCA".
func (c *Courses) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var single Course
		if err := json.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("failed to parse course: %w", err)
		}
		if single == "" {
			*c = Courses{}
			return nil
		}
		*c = Courses{single}
		return nil
	}
	var list []Course
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to parse courses: %w", err)
	}
	*c = list
	return nil
}

// Join renders the course list the way the list screen shows it.
func (c Courses) Join() string {
	parts := make([]string, 0, len(c))
	for _, course := range c {
		parts = append(parts, string(course))
	}
	return strings.Join(parts, ", ")
}
