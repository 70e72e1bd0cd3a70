package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// leadFilterScope is the preference scope of the operator's lead filter.
const leadFilterScope = "admin"

// Leads renders the pipeline board with the state filter, the search and
// pagination applied to the fetched leads.
func (h *Handler) Leads(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionCRM)
	if !ok {
		return
	}
	ctx := r.Context()
	q := r.URL.Query()

	filter := h.pipeline.SavedFilter(ctx, leadFilterScope)
	if q.Has("estado") {
		filter.State = ""
		if state := model.LeadState(q.Get("estado")); state.Valid() {
			filter.State = state
		}
		if err := h.pipeline.SaveFilter(ctx, leadFilterScope, filter); err != nil {
			h.logger.Warn("failed to save lead filter", "error", err)
		}
	}
	filter.Search = strings.TrimSpace(q.Get("q"))
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}

	view, err := h.pipeline.LoadBoard(ctx)
	if err != nil {
		h.fail(w, r, user, err, "failed to load leads")
		return
	}

	shell := h.shell(w, r, "Leads", user)
	h.render(w, r, http.StatusOK, shell, pages.LeadList(toLeadList(view, filter), shell.CSRFToken))
}

// LeadDetail renders one lead with its interactions and the pipeline metrics.
func (h *Handler) LeadDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionCRM)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, user, http.StatusNotFound, application.MsgNotFound)
		return
	}
	ctx := r.Context()

	view := &model.PipelineView{}
	if err := h.pipeline.OpenDetail(ctx, view, id); err != nil {
		h.fail(w, r, user, err, "failed to load lead")
		return
	}
	if metrics, err := h.pipeline.Metrics(ctx); err != nil {
		h.logger.Warn("failed to load pipeline metrics", "error", err)
		view.MetricsStale = true
	} else {
		view.Metrics = *metrics
	}

	shell := h.shell(w, r, view.Detail.Lead.Name, user)
	h.render(w, r, http.StatusOK, shell, pages.LeadDetail(toLeadDetail(view), shell.CSRFToken))
}

// CreateLead creates a lead from the board form.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionCRM); !ok {
		return
	}
	in, err := leadInput(r)
	if err == nil {
		var lead *model.Lead
		lead, err = h.pipeline.CreateLead(r.Context(), &model.PipelineView{}, in)
		if err == nil {
			setFlash(w, flashOK, "Lead creado.")
			http.Redirect(w, r, leadPath(lead.ID), http.StatusSeeOther)
			return
		}
	}
	h.failBack(w, r, err, "/leads", "failed to create lead")
}

// UpdateLead saves the edit form of a lead.
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionCRM); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	in, err := leadInput(r)
	if err == nil {
		_, err = h.pipeline.UpdateLead(r.Context(), &model.PipelineView{}, id, in)
	}
	if err != nil {
		h.failBack(w, r, err, leadPath(id), "failed to update lead")
		return
	}
	setFlash(w, flashOK, "Lead actualizado.")
	http.Redirect(w, r, leadPath(id), http.StatusSeeOther)
}

// ChangeLeadState moves a lead to the posted state. The optional note is
// logged by the API as an interaction.
func (h *Handler) ChangeLeadState(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionCRM); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	back := backTo(r, leadPath(id))
	to := model.LeadState(r.PostFormValue("estado"))

	if err := h.pipeline.Transition(r.Context(), &model.PipelineView{}, id, to, r.PostFormValue("nota")); err != nil {
		h.failBack(w, r, err, back, "failed to change lead state")
		return
	}
	setFlash(w, flashOK, "Lead movido a "+to.Label()+".")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// AddInteraction logs a contact event on a lead.
func (h *Handler) AddInteraction(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionCRM); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	in := model.Interaction{
		Type:        model.InteractionType(r.PostFormValue("tipo")),
		Description: strings.TrimSpace(r.PostFormValue("descripcion")),
	}
	value, err := parseAmount(r.PostFormValue("valor"), "valor")
	if err == nil {
		if value != 0 {
			in.Value = &value
		}
		_, err = h.pipeline.AddInteraction(r.Context(), &model.PipelineView{}, id, in)
	}
	if err != nil {
		h.failBack(w, r, err, leadPath(id), "failed to add interaction")
		return
	}
	setFlash(w, flashOK, "Interacción registrada.")
	http.Redirect(w, r, leadPath(id), http.StatusSeeOther)
}

// Contact logs a call, WhatsApp or email shortcut and redirects to the link
// that opens it.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionCRM); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	channel := application.ContactChannel(r.PathValue("channel"))

	link, err := h.pipeline.LogContact(r.Context(), &model.PipelineView{}, id, channel)
	if err != nil {
		h.failBack(w, r, err, leadPath(id), "failed to log contact")
		return
	}
	http.Redirect(w, r, link, http.StatusSeeOther)
}

// leadInput reads the lead form. Number fields that do not parse are
// reported as validation errors on their field.
func leadInput(r *http.Request) (model.LeadInput, error) {
	in := model.LeadInput{
		Name:   strings.TrimSpace(r.PostFormValue("nombre")),
		Email:  strings.TrimSpace(r.PostFormValue("email")),
		Phone:  strings.TrimSpace(r.PostFormValue("telefono")),
		Source: model.LeadSource(r.PostFormValue("fuente")),
		Notes:  strings.TrimSpace(r.PostFormValue("notas")),
	}

	value, err := parseAmount(r.PostFormValue("valor_estimado"), "valor_estimado")
	if err != nil {
		return in, err
	}
	in.EstimatedValue = value

	if raw := strings.TrimSpace(r.PostFormValue("probabilidad")); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return in, &model.ValidationError{Field: "probabilidad", Message: "la probabilidad debe ser un número entero"}
		}
		in.Probability = p
	}
	return in, nil
}

// parseAmount accepts "1234.5" and "1234,5"; empty input is zero.
func parseAmount(raw, field string) (model.Amount, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || !model.Amount(v).Finite() {
		return 0, &model.ValidationError{Field: field, Message: "el valor debe ser un importe positivo"}
	}
	return model.Amount(v), nil
}
