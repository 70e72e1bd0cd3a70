package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// settingsPath is the storefront settings page.
const settingsPath = "/configuracion"

// Catalog renders the storefront products with the category filter and the
// search applied by the API.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionStorefront)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := model.ProductFilter{Search: strings.TrimSpace(q.Get("q"))}
	if id, err := strconv.ParseInt(q.Get("categoria"), 10, 64); err == nil && id > 0 {
		filter.CategoryID = id
	}

	catalog, err := h.storefront.Catalog(r.Context(), filter)
	if err != nil {
		h.fail(w, r, user, err, "failed to load catalog")
		return
	}
	h.render(w, r, http.StatusOK, h.shell(w, r, "Tienda", user), pages.Catalog(toCatalogPage(catalog, filter)))
}

// Settings renders the storefront configuration and theme forms.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionSettings)
	if !ok {
		return
	}
	cfg, style, err := h.storefront.Settings(r.Context())
	if err != nil {
		h.fail(w, r, user, err, "failed to load store settings")
		return
	}
	shell := h.shell(w, r, "Configuración", user)
	h.render(w, r, http.StatusOK, shell, pages.Settings(toSettingsPage(cfg, style), shell.CSRFToken))
}

// SaveStoreConfig saves the storefront configuration form.
func (h *Handler) SaveStoreConfig(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionSettings); !ok {
		return
	}
	cfg := model.StoreConfig{
		Name:         r.PostFormValue("nombre"),
		Slug:         r.PostFormValue("slug"),
		Description:  strings.TrimSpace(r.PostFormValue("descripcion")),
		ContactEmail: r.PostFormValue("email_contacto"),
		Phone:        strings.TrimSpace(r.PostFormValue("telefono")),
		Address:      strings.TrimSpace(r.PostFormValue("direccion")),
		Published:    r.PostFormValue("publicada") != "",
	}
	if _, err := h.storefront.SaveConfig(r.Context(), cfg); err != nil {
		h.failBack(w, r, err, settingsPath, "failed to save store config")
		return
	}
	setFlash(w, flashOK, "Configuración de la tienda guardada.")
	http.Redirect(w, r, settingsPath, http.StatusSeeOther)
}

// SaveStoreStyle saves the storefront theme form.
func (h *Handler) SaveStoreStyle(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionSettings); !ok {
		return
	}
	style := model.StoreStyle{
		PrimaryColor:    r.PostFormValue("color_primario"),
		SecondaryColor:  r.PostFormValue("color_secundario"),
		BackgroundColor: r.PostFormValue("color_fondo"),
		Font:            strings.TrimSpace(r.PostFormValue("fuente")),
		Layout:          model.StoreLayout(r.PostFormValue("plantilla")),
	}
	if _, err := h.storefront.SaveStyle(r.Context(), style); err != nil {
		h.failBack(w, r, err, settingsPath, "failed to save store style")
		return
	}
	setFlash(w, flashOK, "Estilo de la tienda guardado.")
	http.Redirect(w, r, settingsPath, http.StatusSeeOther)
}
