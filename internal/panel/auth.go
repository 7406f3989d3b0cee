package panel

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UnknownOlympus/roster/internal/client/backend"
	"github.com/UnknownOlympus/roster/internal/i18n"
	"github.com/UnknownOlympus/roster/internal/session"
)

const languageCookieAge = 365 * 24 * time.Hour

func (p *Panel) loginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.currentSession(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	p.render(w, r, http.StatusOK, pageLogin, p.newPageData(r, "app.title"))
}

func (p *Panel) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/login", withFlash(nil, flashError, "login.invalid", ""))
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		redirect(w, r, "/login", withFlash(nil, flashError, "login.required", ""))
		return
	}

	token, err := p.backend.Login(r.Context(), username, password)
	if err != nil {
		p.metrics.Logins.WithLabelValues("failed").Inc()
		p.log.InfoContext(r.Context(), "Login failed", "username", username, "error", err)
		key := "login.invalid"
		if errors.Is(err, backend.ErrUnavailable) {
			key = "flash.unavailable"
		}
		redirect(w, r, "/login", withFlash(nil, flashError, key, ""))
		return
	}

	sess, err := session.New(token)
	now := p.now()
	if err != nil || sess.Expired(now) {
		p.metrics.Logins.WithLabelValues("failed").Inc()
		redirect(w, r, "/login", withFlash(nil, flashError, "login.invalid", ""))
		return
	}

	ttl := sess.TTL(now, p.cfg.SessionTTL)
	if err = p.sessions.Save(r.Context(), sess, ttl); err != nil {
		p.log.ErrorContext(r.Context(), "Failed to save session", "error", err)
		redirect(w, r, "/login", withFlash(nil, flashError, "flash.unavailable", ""))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     p.cfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   p.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	p.metrics.Logins.WithLabelValues("ok").Inc()
	p.log.InfoContext(r.Context(), "User logged in", "username", sess.Username)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (p *Panel) logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		p.dropSession(r.Context(), sess.ID)
	}
	p.clearSessionCookie(w)
	redirect(w, r, "/", withFlash(nil, flashMessage, "flash.logged_out", ""))
}

// endSession is the reaction to the backend rejecting the token.
func (p *Panel) endSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		p.log.InfoContext(r.Context(), "Backend rejected session token", "username", sess.Username)
		p.dropSession(r.Context(), sess.ID)
	}
	p.clearSessionCookie(w)
	redirect(w, r, "/login", withFlash(nil, flashError, "flash.session_expired", ""))
}

func (p *Panel) setLanguage(w http.ResponseWriter, r *http.Request) {
	lang := i18n.NormalizeLanguageCode(r.FormValue("lang"))
	http.SetCookie(w, &http.Cookie{
		Name:     languageCookie,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(languageCookieAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, localPath(r.FormValue("next")), http.StatusFound)
}

// localPath accepts only same-site absolute paths.
func localPath(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	if parsed, err := url.Parse(next); err != nil || parsed.Host != "" || parsed.Scheme != "" {
		return "/"
	}
	return next
}
