// Package panel serves the employee admin screens: login, the employee list
// with its counts and actions, the create and edit forms and the xlsx export.
// It is a client of the employee REST backend and keeps no employee data of
// its own beyond the per-session list views.
package panel

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UnknownOlympus/roster/internal/client/backend"
	"github.com/UnknownOlympus/roster/internal/i18n"
	"github.com/UnknownOlympus/roster/internal/metrics"
	"github.com/UnknownOlympus/roster/internal/roster"
	"github.com/UnknownOlympus/roster/internal/session"
	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Config holds the panel listener and session settings.
type Config struct {
	Addr           string
	CookieName     string
	CookieSecure   bool
	SessionTTL     time.Duration
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Panel is the web panel. Create it with New.
type Panel struct {
	cfg       Config
	log       *slog.Logger
	backend   *backend.Client
	sessions  session.Store
	views     *roster.Views
	localizer *i18n.Localizer
	metrics   *metrics.Metrics
	pages     map[string]*template.Template
	csp       string
	now       func() time.Time
}

// New parses the page templates and wires the panel dependencies.
func New(
	cfg Config,
	log *slog.Logger,
	client *backend.Client,
	sessions session.Store,
	localizer *i18n.Localizer,
	m *metrics.Metrics,
) (*Panel, error) {
	p := &Panel{
		cfg:       cfg,
		log:       log,
		backend:   client,
		sessions:  sessions,
		views:     roster.NewViews(),
		localizer: localizer,
		metrics:   m,
		pages:     make(map[string]*template.Template),
		now:       time.Now,
	}

	for _, page := range []string{pageLogin, pageList, pageForm} {
		tmpl, err := template.New("layout.html").
			Funcs(p.templateFuncs()).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		p.pages[page] = tmpl
	}

	p.csp = strings.Join([]string{
		"default-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: " + client.Origin(),
		"script-src 'self' 'unsafe-inline'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	return p, nil
}

// Router builds the panel routes.
func (p *Panel) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", p.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", p.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", p.login).Methods(http.MethodPost)
	r.HandleFunc("/language", p.setLanguage).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(p.requireSession)
	authed.HandleFunc("/logout", p.logout).Methods(http.MethodPost)
	authed.HandleFunc("/dashboard", p.dashboard).Methods(http.MethodGet)
	authed.HandleFunc("/dashboard/employees", p.employeeList).Methods(http.MethodGet)
	authed.HandleFunc("/dashboard/export.xlsx", p.export).Methods(http.MethodGet)
	authed.HandleFunc("/employees/new", p.newEmployeeForm).Methods(http.MethodGet)
	authed.HandleFunc("/employees", p.createEmployee).Methods(http.MethodPost)
	authed.HandleFunc("/employees/{key}/edit", p.editEmployeeForm).Methods(http.MethodGet)
	authed.HandleFunc("/employees/{key}", p.updateEmployee).Methods(http.MethodPost)
	authed.HandleFunc("/employees/{key}/toggle", p.toggleEmployee).Methods(http.MethodPost)
	authed.HandleFunc("/employees/{key}/delete", p.deleteEmployee).Methods(http.MethodPost)

	return chain(r, p.securityHeaders, p.logRequests, p.withLanguage)
}

// Run serves the panel until ctx is cancelled.
func (p *Panel) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              p.cfg.Addr,
		Handler:           p.Router(),
		ReadHeaderTimeout: p.cfg.ReadTimeout,
		WriteTimeout:      p.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		p.log.InfoContext(ctx, "Starting panel server", "addr", p.cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd // shutdown grace period
		defer cancel()
		p.log.InfoContext(ctx, "Panel server shutting down.")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown panel server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("panel server failed: %w", err)
	}
}
