package panel

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/UnknownOlympus/roster/internal/client/backend"
	"github.com/UnknownOlympus/roster/internal/roster"
	"github.com/UnknownOlympus/roster/internal/session"
	"github.com/gorilla/mux"
)

// dashboard is a visit to the list screen: the previous view is discarded
// and a fresh one is fetched.
func (p *Panel) dashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	data := p.newPageData(r, "nav.dashboard")

	view, err := p.mountView(r.Context(), sess)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			p.endSession(w, r)
			return
		}
		p.log.ErrorContext(r.Context(), "Failed to load employees", "error", err)
		data.Error = "flash.fetch_failed"
	}

	p.renderList(w, r, view, data)
}

// employeeList re-renders the mounted view with the requested search and
// sort. It only fetches when nothing is mounted yet.
func (p *Panel) employeeList(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	data := p.newPageData(r, "nav.employees")

	view, err := p.mountedView(r.Context(), sess)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			p.endSession(w, r)
			return
		}
		p.log.ErrorContext(r.Context(), "Failed to load employees", "error", err)
		if data.Error == "" {
			data.Error = "flash.fetch_failed"
		}
	}

	applyListQuery(view, r.URL.Query())
	p.renderList(w, r, view, data)
}

func (p *Panel) renderList(w http.ResponseWriter, r *http.Request, view *roster.View, data pageData) {
	sess, _ := session.FromContext(r.Context())
	data.Username = sess.Username
	data.View = view.Snapshot()
	data.SortOptions = roster.SortOptions()

	p.render(w, r, http.StatusOK, pageList, data)
}

func (p *Panel) toggleEmployee(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	key := mux.Vars(r)["key"]
	back := listQuery(r)

	view, err := p.mountedView(r.Context(), sess)
	if err == nil {
		_, err = view.Toggle(r.Context(), key)
	}

	switch {
	case err == nil:
		p.metrics.Actions.WithLabelValues("toggle", "ok").Inc()
		back = withFlash(back, flashMessage, "flash.toggled", "")
	case errors.Is(err, backend.ErrUnauthorized):
		p.endSession(w, r)
		return
	case errors.Is(err, roster.ErrToggleInFlight):
		p.metrics.Actions.WithLabelValues("toggle", "rejected").Inc()
		back = withFlash(back, flashError, "flash.toggle_in_flight", "")
	case errors.Is(err, roster.ErrNotFound):
		p.metrics.Actions.WithLabelValues("toggle", "rejected").Inc()
		back = withFlash(back, flashError, "flash.not_found", "")
	default:
		p.metrics.Actions.WithLabelValues("toggle", "failed").Inc()
		p.log.ErrorContext(r.Context(), "Failed to toggle employee status", "key", key, "error", err)
		errKey, detail := backendFlash(err, "flash.toggle_failed")
		back = withFlash(back, flashError, errKey, detail)
	}

	redirect(w, r, "/dashboard/employees", back)
}

func (p *Panel) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	key := mux.Vars(r)["key"]
	back := listQuery(r)

	view, err := p.mountedView(r.Context(), sess)
	if err == nil {
		err = view.Delete(r.Context(), key)
	}

	switch {
	case err == nil:
		p.metrics.Actions.WithLabelValues("delete", "ok").Inc()
		p.log.InfoContext(r.Context(), "Employee deleted", "key", key, "username", sess.Username)
		back = withFlash(back, flashMessage, "flash.deleted", "")
	case errors.Is(err, backend.ErrUnauthorized):
		p.endSession(w, r)
		return
	case errors.Is(err, roster.ErrNotFound):
		p.metrics.Actions.WithLabelValues("delete", "rejected").Inc()
		back = withFlash(back, flashError, "flash.not_found", "")
	default:
		p.metrics.Actions.WithLabelValues("delete", "failed").Inc()
		p.log.ErrorContext(r.Context(), "Failed to delete employee", "key", key, "error", err)
		errKey, detail := backendFlash(err, "flash.delete_failed")
		back = withFlash(back, flashError, errKey, detail)
	}

	redirect(w, r, "/dashboard/employees", back)
}

// mountView installs a fresh view for the session and loads it. The view
// is returned even when loading failed, so the screen can still render.
func (p *Panel) mountView(ctx context.Context, sess *session.Session) (*roster.View, error) {
	view := p.views.Mount(sess.ID, roster.NewView(p.backend.WithSession(sess), p.log))
	p.metrics.ActiveViews.Set(float64(p.views.Len()))

	return view, view.Load(ctx)
}

func (p *Panel) mountedView(ctx context.Context, sess *session.Session) (*roster.View, error) {
	if view, ok := p.views.Get(sess.ID); ok {
		return view, nil
	}
	return p.mountView(ctx, sess)
}

func applyListQuery(view *roster.View, query url.Values) {
	view.SetQuery(query.Get("q"))
	view.SetSort(roster.ParseSortOption(query.Get("sort")))
}

// backendFlash maps a failed backend call to a notification: the server
// message when it sent one, the fallback otherwise.
func backendFlash(err error, fallback string) (string, string) {
	if errors.Is(err, backend.ErrUnavailable) {
		return "flash.unavailable", ""
	}
	if msg := strings.TrimSpace(backend.Message(err)); msg != "" {
		return "flash.server_error", msg
	}
	return fallback, ""
}
