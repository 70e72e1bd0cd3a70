// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	auth       *application.AuthService
	pipeline   *application.PipelineService
	backups    *application.BackupService
	stock      *application.StockAlertService
	guard      *application.SessionGuard
	storefront *application.StorefrontService
	reports    *application.ReportService
	commerce   driven.CommerceAPI
	plans      driven.PlanCatalog
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.AuthService,
	pipeline *application.PipelineService,
	backups *application.BackupService,
	stock *application.StockAlertService,
	guard *application.SessionGuard,
	storefront *application.StorefrontService,
	reports *application.ReportService,
	commerce driven.CommerceAPI,
	plans driven.PlanCatalog,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:       auth,
		pipeline:   pipeline,
		backups:    backups,
		stock:      stock,
		guard:      guard,
		storefront: storefront,
		reports:    reports,
		commerce:   commerce,
		plans:      plans,
		logger:     logger,
	}
}

// currentUser returns the user logged in under key, or nil. A store failure
// is logged and treated as logged out.
func (h *Handler) currentUser(ctx context.Context, key model.SessionKey) *model.StoredUser {
	user, err := h.auth.CurrentUser(ctx, key)
	if err != nil {
		h.logger.Warn("failed to read current user", "session", key.String(), "error", err)
		return nil
	}
	return user
}

// shell builds the page chrome. Navigation only lists the sections the
// user's role may see.
func (h *Handler) shell(w http.ResponseWriter, r *http.Request, title string, user *model.StoredUser) vm.Shell {
	s := vm.Shell{
		Title:     title,
		Flash:     popFlash(w, r),
		CSRFToken: csrfFromContext(r.Context()),
	}
	if user == nil {
		return s
	}
	s.UserName = displayName(user)
	s.RoleLabel = roleLabel(user.Role)
	s.Nav = navFor(user.Role, r.URL.Path)
	return s
}

// render writes body inside the layout with the given status.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, shell vm.Shell, body templ.Component) {
	templ.Handler(templates.Layout(shell, body), templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, user *model.StoredUser, status int, message string) {
	shell := h.shell(w, r, "Error", user)
	back := "/"
	if user == nil {
		back = ""
	}
	h.render(w, r, status, shell, templates.ErrorPage(vm.ErrorPage{Status: status, Message: message, Back: back}))
}

// requireSection returns the admin user when the role may see section.
// Visitors go to the login page; other roles get 403.
func (h *Handler) requireSection(w http.ResponseWriter, r *http.Request, section model.Section) (*model.StoredUser, bool) {
	user := h.currentUser(r.Context(), model.AdminSession)
	if user == nil {
		http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return nil, false
	}
	if !model.CanAccess(user.Role, section) {
		h.renderError(w, r, user, http.StatusForbidden, application.MsgForbidden)
		return nil, false
	}
	return user, true
}

// fail is the single error funnel of page requests. A 401 goes through the
// session guard and redirects to the matching login page; everything else
// is rendered as an error page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, user *model.StoredUser, err error, logMsg string) {
	f := application.DescribeFailure(err)
	if h.redirectUnauthorized(w, r, f) {
		return
	}
	h.logFailure(f, err, logMsg)
	h.renderError(w, r, user, failureStatus(f.Kind), f.Message)
}

// failBack is the error funnel of form posts: the message is flashed and the
// operator is sent back to the page the form lives on.
func (h *Handler) failBack(w http.ResponseWriter, r *http.Request, err error, back, logMsg string) {
	f := application.DescribeFailure(err)
	if h.redirectUnauthorized(w, r, f) {
		return
	}
	h.logFailure(f, err, logMsg)
	setFlash(w, flashError, f.Message)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) redirectUnauthorized(w http.ResponseWriter, r *http.Request, f application.Failure) bool {
	if f.Kind != application.FailureUnauthorized {
		return false
	}
	redirect, handled := h.guard.HandleUnauthorized(r.Context(), application.PagePath(r.Context()))
	if !handled {
		return false
	}
	setFlash(w, flashError, f.Message)
	http.Redirect(w, r, redirect, http.StatusSeeOther)
	return true
}

func (h *Handler) logFailure(f application.Failure, err error, logMsg string) {
	switch f.Kind {
	case application.FailureInternal:
		h.logger.Error(logMsg, "error", err)
	case application.FailureUnreachable:
		h.logger.Warn(logMsg, "error", err)
	default:
		h.logger.Debug(logMsg, "error", err)
	}
}

func failureStatus(kind application.FailureKind) int {
	switch kind {
	case application.FailureUnauthorized:
		return http.StatusUnauthorized
	case application.FailureForbidden:
		return http.StatusForbidden
	case application.FailureNotFound:
		return http.StatusNotFound
	case application.FailureInvalid:
		return http.StatusBadRequest
	case application.FailureUnreachable:
		return http.StatusBadGateway
	case application.FailureCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// safeNext keeps login redirects on this host.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// backTo returns the Referer path when it points at this panel, else fallback.
func backTo(r *http.Request, fallback string) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || u.Path == "" || (u.Host != "" && u.Host != r.Host) {
		return fallback
	}
	back := u.Path
	if u.RawQuery != "" {
		back += "?" + u.RawQuery
	}
	return safeNext(back)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// withPagePath stores the panel path the operator is on before any API
// call. Form posts use the page the form was submitted from.
func withPagePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if u, err := url.Parse(backTo(r, r.URL.Path)); err == nil {
				path = u.Path
			}
		}
		next.ServeHTTP(w, r.WithContext(application.WithPagePath(r.Context(), path)))
	})
}
