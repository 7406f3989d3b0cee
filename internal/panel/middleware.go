package panel

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/UnknownOlympus/roster/internal/i18n"
	"github.com/UnknownOlympus/roster/internal/session"
)

const languageCookie = "lang"

type languageKey struct{}

// chain applies middleware so that the first one listed sees the request first.
func chain(handler http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// securityHeaders sets the browser hardening headers on every response,
// including redirects and 404s. Images come from the backend origin, so the
// policy is built once in New from the backend URL.
func (p *Panel) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Cache-Control", "no-store")
		h.Set("Content-Security-Policy", p.csp)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (p *Panel) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		p.log.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// withLanguage picks the UI language from the lang cookie, then from Accept-Language.
func (p *Panel) withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.FromAcceptLanguage(r.Header.Get("Accept-Language"))
		if cookie, err := r.Cookie(languageCookie); err == nil && cookie.Value != "" {
			lang = i18n.NormalizeLanguageCode(cookie.Value)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), languageKey{}, lang)))
	})
}

func languageFrom(ctx context.Context) string {
	if lang, ok := ctx.Value(languageKey{}).(string); ok {
		return lang
	}
	return i18n.DefaultLanguage
}

// requireSession redirects to the login page unless the request carries a
// live session. An expired token counts as logged out.
func (p *Panel) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := p.currentSession(r)
		if !ok {
			p.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
	})
}

func (p *Panel) currentSession(r *http.Request) (*session.Session, bool) {
	cookie, err := r.Cookie(p.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	sess, err := p.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			p.log.ErrorContext(r.Context(), "Failed to load session", "error", err)
		}
		return nil, false
	}

	if sess.Expired(p.now()) {
		p.dropSession(r.Context(), sess.ID)
		return nil, false
	}

	return sess, true
}

func (p *Panel) dropSession(ctx context.Context, id string) {
	if err := p.sessions.Delete(ctx, id); err != nil {
		p.log.WarnContext(ctx, "Failed to delete session", "error", err)
	}
	p.views.Unmount(id)
	p.metrics.ActiveViews.Set(float64(p.views.Len()))
}

func (p *Panel) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
