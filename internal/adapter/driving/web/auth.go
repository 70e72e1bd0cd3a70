package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

const msgBadCredentials = "Email o contraseña incorrectos."

func adminLoginForm(next string) vm.AuthForm {
	return vm.AuthForm{
		Title:        "Entrar",
		Action:       "/login",
		Next:         next,
		AltLinkLabel: "¿No tiene cuenta? Regístrese",
		AltLinkPath:  "/register",
		ResetPath:    "/recuperar",
	}
}

func adminRegisterForm() vm.AuthForm {
	return vm.AuthForm{
		Title:        "Crear cuenta",
		Action:       "/register",
		Register:     true,
		WithStore:    true,
		AltLinkLabel: "¿Ya tiene cuenta? Entre",
		AltLinkPath:  "/login",
	}
}

func storefrontBase(slug string) string {
	return "/" + application.StorefrontMarker + "/" + url.PathEscape(slug)
}

func storefrontLoginForm(slug, next string) vm.AuthForm {
	base := storefrontBase(slug)
	return vm.AuthForm{
		Title:        "Entrar a " + slug,
		Action:       base + "/login",
		Next:         next,
		AltLinkLabel: "Crear cuenta de cliente",
		AltLinkPath:  base + "/registro",
	}
}

func storefrontRegisterForm(slug string) vm.AuthForm {
	base := storefrontBase(slug)
	return vm.AuthForm{
		Title:        "Crear cuenta en " + slug,
		Action:       base + "/registro",
		Register:     true,
		AltLinkLabel: "¿Ya tiene cuenta? Entre",
		AltLinkPath:  base + "/login",
	}
}

// authFailure fills the inline error of form. Bad credentials answer 401 on
// public routes, which never redirect, so they get their own message.
func (h *Handler) authFailure(form *vm.AuthForm, err error) int {
	if errors.Is(err, driven.ErrUnauthorized) {
		form.Error = msgBadCredentials
		return http.StatusUnauthorized
	}
	f := application.DescribeFailure(err)
	h.logFailure(f, err, "authentication failed")
	form.Error = f.Message
	form.ErrorField = f.Field
	return failureStatus(f.Kind)
}

func (h *Handler) renderAuth(w http.ResponseWriter, r *http.Request, status int, form vm.AuthForm, slug string) {
	shell := h.shell(w, r, form.Title, nil)
	shell.StorefrontSlug = slug
	h.render(w, r, status, shell, pages.AuthForm(form, shell.CSRFToken))
}

// LoginPage shows the admin login form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderAuth(w, r, http.StatusOK, adminLoginForm(r.URL.Query().Get("next")), "")
}

// Login signs the operator in and persists the admin session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	in := model.LoginInput{Email: strings.TrimSpace(r.PostFormValue("email")), Password: r.PostFormValue("password")}
	next := r.PostFormValue("next")

	user, err := h.auth.Login(r.Context(), in)
	if err != nil {
		form := adminLoginForm(next)
		form.Email = in.Email
		h.renderAuth(w, r, h.authFailure(&form, err), form, "")
		return
	}

	// The profile carries the authoritative role.
	if profile, err := h.auth.RefreshProfile(r.Context()); err != nil {
		h.logger.Warn("failed to refresh profile after login", "error", err)
	} else {
		user = profile
	}

	setFlash(w, flashOK, "Bienvenido, "+displayName(user)+".")
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// RegisterPage shows the tenant registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderAuth(w, r, http.StatusOK, adminRegisterForm(), "")
}

// Register creates a tenant account and signs it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	in := registerInput(r)
	user, err := h.auth.Register(r.Context(), in)
	if err != nil {
		form := adminRegisterForm()
		form.Name, form.Email, form.StoreName = in.Name, in.Email, in.StoreName
		h.renderAuth(w, r, h.authFailure(&form, err), form, "")
		return
	}

	setFlash(w, flashOK, "Cuenta creada. Bienvenido, "+displayName(user)+".")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the admin session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), model.AdminSession); err != nil {
		h.failBack(w, r, err, "/", "failed to log out")
		return
	}
	setFlash(w, flashOK, "Sesión cerrada.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RequestPasswordReset asks the API to mail a reset link.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.RequestPasswordReset(r.Context(), strings.TrimSpace(r.PostFormValue("email"))); err != nil {
		h.failBack(w, r, err, "/login", "password reset request failed")
		return
	}
	setFlash(w, flashOK, "Si el email está registrado, recibirá un enlace para restablecer la contraseña.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// StorefrontLoginPage shows the customer login form of a storefront.
func (h *Handler) StorefrontLoginPage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	h.renderAuth(w, r, http.StatusOK, storefrontLoginForm(slug, r.URL.Query().Get("next")), slug)
}

// StorefrontLogin signs a customer into one storefront. The admin session
// is left alone.
func (h *Handler) StorefrontLogin(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	in := model.LoginInput{Email: strings.TrimSpace(r.PostFormValue("email")), Password: r.PostFormValue("password")}
	next := r.PostFormValue("next")

	if _, err := h.auth.StorefrontLogin(r.Context(), slug, in); err != nil {
		form := storefrontLoginForm(slug, next)
		form.Email = in.Email
		h.renderAuth(w, r, h.authFailure(&form, err), form, slug)
		return
	}

	target := safeNext(next)
	if target == "/" {
		target = storefrontBase(slug) + "/pedidos"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// StorefrontRegisterPage shows the customer registration form.
func (h *Handler) StorefrontRegisterPage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	h.renderAuth(w, r, http.StatusOK, storefrontRegisterForm(slug), slug)
}

// StorefrontRegister creates a customer account on one storefront.
func (h *Handler) StorefrontRegister(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	in := registerInput(r)
	if _, err := h.auth.StorefrontRegister(r.Context(), slug, in); err != nil {
		form := storefrontRegisterForm(slug)
		form.Name, form.Email = in.Name, in.Email
		h.renderAuth(w, r, h.authFailure(&form, err), form, slug)
		return
	}
	http.Redirect(w, r, storefrontBase(slug)+"/pedidos", http.StatusSeeOther)
}

// StorefrontLogout clears one storefront's customer session.
func (h *Handler) StorefrontLogout(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	login := storefrontBase(slug) + "/login"
	if err := h.auth.Logout(r.Context(), model.StorefrontSession(slug)); err != nil {
		h.failBack(w, r, err, login, "failed to log out of storefront")
		return
	}
	http.Redirect(w, r, login, http.StatusSeeOther)
}

func registerInput(r *http.Request) model.RegisterInput {
	return model.RegisterInput{
		Name:            strings.TrimSpace(r.PostFormValue("nombre")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		PasswordConfirm: r.PostFormValue("password_confirm"),
		StoreName:       strings.TrimSpace(r.PostFormValue("nombre_tienda")),
	}
}
