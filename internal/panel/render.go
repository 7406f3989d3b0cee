package panel

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/UnknownOlympus/roster/internal/i18n"
	"github.com/UnknownOlympus/roster/internal/models"
	"github.com/UnknownOlympus/roster/internal/roster"
)

const (
	pageLogin = "login.html"
	pageList  = "dashboard.html"
	pageForm  = "employee_form.html"
)

// Flash query parameters. Their values are translation keys, detail carries
// a server message for keys with a {message} placeholder.
const (
	flashMessage = "message"
	flashError   = "error"
	flashDetail  = "detail"
)

type pageData struct {
	Lang      string
	Languages []string
	TitleKey  string
	Path      string
	Username  string
	Message   string
	Error     string
	Detail    string

	View        roster.Snapshot
	SortOptions []roster.SortOption

	Form         models.EmployeeForm
	FormErrors   map[string]string
	FormAction   string
	IsEdit       bool
	Designations []models.Designation
	Genders      []models.Gender
	Courses      []models.Course
}

func (p *Panel) newPageData(r *http.Request, titleKey string) pageData {
	query := r.URL.Query()
	return pageData{
		Lang:      languageFrom(r.Context()),
		Languages: i18n.Languages(),
		TitleKey:  titleKey,
		Path:      r.URL.RequestURI(),
		Message:   query.Get(flashMessage),
		Error:     query.Get(flashError),
		Detail:    query.Get(flashDetail),
	}
}

func (p *Panel) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"t": p.localizer.Get,
		"flash": func(lang, key, detail string) string {
			if key == "" || !p.localizer.Has(key) {
				return ""
			}
			return p.localizer.GetWithData(lang, key, map[string]interface{}{"message": detail, "limit": detail})
		},
		"welcome": func(lang, username string) string {
			if username == "" {
				return p.localizer.Get(lang, "dashboard.welcome_anonymous")
			}
			return p.localizer.GetWithData(lang, "dashboard.welcome", map[string]interface{}{"username": username})
		},
		"imageURL": p.backend.ImageURL,
		"date":     formatDate,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02 Jan 2006")
}

func (p *Panel) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := p.pages[page].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		p.log.ErrorContext(r.Context(), "Failed to render template", "page", page, "error", err)
		http.Error(w, "template render failed", http.StatusInternalServerError)
		return
	}

	p.metrics.PageViews.WithLabelValues(page).Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// redirect sends the browser to path with the given query, if any.
func redirect(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	http.Redirect(w, r, path, http.StatusFound)
}

// listQuery keeps the search and sort of the list screen across a redirect.
func listQuery(r *http.Request) url.Values {
	query := url.Values{}
	if q := r.FormValue("q"); q != "" {
		query.Set("q", q)
	}
	if sort := r.FormValue("sort"); sort != "" && sort != "none" {
		query.Set("sort", sort)
	}
	return query
}

func withFlash(query url.Values, kind, key, detail string) url.Values {
	if query == nil {
		query = url.Values{}
	}
	query.Set(kind, key)
	if detail != "" {
		query.Set(flashDetail, detail)
	}
	return query
}
