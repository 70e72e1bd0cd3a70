package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// DefaultLeadPageSize is used when no page size preference is stored.
const DefaultLeadPageSize = 20

// ContactChannel is a communication shortcut offered on a lead.
type ContactChannel string

const (
	ContactCall     ContactChannel = "llamada"
	ContactWhatsApp ContactChannel = "whatsapp"
	ContactEmail    ContactChannel = "email"
)

// PipelineService drives the lead pipeline board. View state is only mutated
// after the API confirmed the change; metrics always come from the API.
type PipelineService struct {
	api    driven.LeadAPI
	prefs  driven.PreferenceStore
	logger *slog.Logger
}

// NewPipelineService creates a PipelineService.
func NewPipelineService(api driven.LeadAPI, prefs driven.PreferenceStore, logger *slog.Logger) *PipelineService {
	return &PipelineService{api: api, prefs: prefs, logger: logger}
}

// LoadBoard fetches all leads and the pipeline metrics.
func (s *PipelineService) LoadBoard(ctx context.Context) (*model.PipelineView, error) {
	leads, err := s.api.ListLeads(ctx)
	if err != nil {
		return nil, err
	}
	metrics, err := s.api.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	return &model.PipelineView{Leads: leads, Metrics: *metrics}, nil
}

// Metrics fetches the pipeline aggregates without the lead list.
func (s *PipelineService) Metrics(ctx context.Context) (*model.PipelineMetrics, error) {
	return s.api.Metrics(ctx)
}

// OpenDetail loads a lead with its interactions into the detail pane.
func (s *PipelineService) OpenDetail(ctx context.Context, view *model.PipelineView, leadID int64) error {
	lead, err := s.api.GetLead(ctx, leadID)
	if err != nil {
		return err
	}
	interactions, err := s.api.ListInteractions(ctx, leadID)
	if err != nil {
		return err
	}
	view.Detail = &model.LeadDetail{Lead: *lead, Interactions: interactions}
	return nil
}

// Transition moves a lead to another state. A non-empty note is stored by
// the API as an interaction. On failure view is left untouched.
func (s *PipelineService) Transition(ctx context.Context, view *model.PipelineView, leadID int64, to model.LeadState, note string) error {
	if !to.Valid() {
		return &model.ValidationError{Field: "estado", Message: fmt.Sprintf("estado desconocido %q", to)}
	}

	if from, ok := currentState(view, leadID); ok && !model.IsOffered(from, to) {
		s.logger.Debug("transition outside recommended table", "lead_id", leadID, "from", from, "to", to)
	}

	updated, err := s.api.UpdateLeadState(ctx, leadID, to, strings.TrimSpace(note))
	if err != nil {
		return err
	}

	s.applyLead(view, *updated)
	if view.Detail != nil && view.Detail.Lead.ID == leadID && strings.TrimSpace(note) != "" {
		s.reloadInteractions(ctx, view)
	}
	s.refreshMetrics(ctx, view)

	s.logger.Info("lead moved", "lead_id", leadID, "to", to)
	return nil
}

// CreateLead validates and creates a lead, adding it to the top of the board.
func (s *PipelineService) CreateLead(ctx context.Context, view *model.PipelineView, in model.LeadInput) (*model.Lead, error) {
	if in.Source == "" {
		in.Source = model.LeadSourceManual
	}
	if in.State == "" {
		in.State = model.LeadStateNew
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	lead, err := s.api.CreateLead(ctx, in)
	if err != nil {
		return nil, err
	}

	view.Leads = append([]model.Lead{*lead}, view.Leads...)
	s.refreshMetrics(ctx, view)
	return lead, nil
}

// UpdateLead saves field edits of a lead.
func (s *PipelineService) UpdateLead(ctx context.Context, view *model.PipelineView, leadID int64, in model.LeadInput) (*model.Lead, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	lead, err := s.api.UpdateLead(ctx, leadID, in)
	if err != nil {
		return nil, err
	}

	s.applyLead(view, *lead)
	s.refreshMetrics(ctx, view)
	return lead, nil
}

// AddInteraction logs a contact event. Purchases must carry a value; they
// change the lead's purchase aggregates, so the lead is re-read.
func (s *PipelineService) AddInteraction(ctx context.Context, view *model.PipelineView, leadID int64, in model.Interaction) (*model.Interaction, error) {
	if err := validateInteraction(in); err != nil {
		return nil, err
	}

	created, err := s.api.AddInteraction(ctx, leadID, in)
	if err != nil {
		return nil, err
	}

	if view.Detail != nil && view.Detail.Lead.ID == leadID {
		view.Detail.Interactions = append(view.Detail.Interactions, *created)
	}

	if in.Type == model.InteractionPurchase {
		if lead, err := s.api.GetLead(ctx, leadID); err != nil {
			s.logger.Warn("failed to reload lead after purchase", "lead_id", leadID, "error", err)
		} else {
			s.applyLead(view, *lead)
		}
		s.refreshMetrics(ctx, view)
	}

	return created, nil
}

// LogContact records that the operator used a communication shortcut and
// returns the link that opens it (tel:, WhatsApp or mailto:).
func (s *PipelineService) LogContact(ctx context.Context, view *model.PipelineView, leadID int64, channel ContactChannel) (string, error) {
	lead, ok := findLead(view, leadID)
	if !ok {
		fetched, err := s.api.GetLead(ctx, leadID)
		if err != nil {
			return "", err
		}
		lead = *fetched
	}

	link, kind, err := contactLink(lead, channel)
	if err != nil {
		return "", err
	}

	interaction := model.Interaction{Type: kind, Description: contactDescription(channel)}
	if _, err := s.AddInteraction(ctx, view, leadID, interaction); err != nil {
		return "", err
	}
	return link, nil
}

// SavedFilter returns the stored state filter and page size for scope.
func (s *PipelineService) SavedFilter(ctx context.Context, scope string) model.LeadFilter {
	filter := model.LeadFilter{Page: 1, PageSize: DefaultLeadPageSize}
	if s.prefs == nil {
		return filter
	}

	if v, err := s.prefs.Get(ctx, scope, model.PrefLeadStateFilter); err != nil {
		s.logger.Warn("failed to read lead filter preference", "error", err)
	} else if state := model.LeadState(v); state.Valid() {
		filter.State = state
	}

	if v, err := s.prefs.Get(ctx, scope, model.PrefLeadPageSize); err != nil {
		s.logger.Warn("failed to read page size preference", "error", err)
	} else if n, err := strconv.Atoi(v); err == nil && n > 0 {
		filter.PageSize = n
	}

	return filter
}

// SaveFilter persists the state filter and page size for scope.
func (s *PipelineService) SaveFilter(ctx context.Context, scope string, filter model.LeadFilter) error {
	if s.prefs == nil {
		return nil
	}
	prefs := []model.Preference{
		{Scope: scope, Key: model.PrefLeadStateFilter, Value: string(filter.State)},
		{Scope: scope, Key: model.PrefLeadPageSize, Value: strconv.Itoa(filter.PageSize)},
	}
	for _, p := range prefs {
		if err := s.prefs.Set(ctx, p); err != nil {
			return fmt.Errorf("saving lead filter: %w", err)
		}
	}
	return nil
}

// FilterLeads applies the state filter, the text search and pagination to
// already-fetched leads. It returns the page and the number of matches.
func FilterLeads(leads []model.Lead, filter model.LeadFilter) ([]model.Lead, int) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	matched := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if filter.State != "" && l.State != filter.State {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Name), search) &&
			!strings.Contains(strings.ToLower(l.Email), search) &&
			!strings.Contains(l.Phone, search) {
			continue
		}
		matched = append(matched, l)
	}

	size := filter.PageSize
	if size <= 0 {
		size = DefaultLeadPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	if start >= len(matched) {
		return []model.Lead{}, len(matched)
	}
	end := min(start+size, len(matched))
	return matched[start:end], len(matched)
}

// applyLead replaces the lead in the list and in the detail pane.
func (s *PipelineService) applyLead(view *model.PipelineView, lead model.Lead) {
	for i := range view.Leads {
		if view.Leads[i].ID == lead.ID {
			view.Leads[i] = lead
			break
		}
	}
	if view.Detail != nil && view.Detail.Lead.ID == lead.ID {
		view.Detail.Lead = lead
	}
}

func (s *PipelineService) reloadInteractions(ctx context.Context, view *model.PipelineView) {
	items, err := s.api.ListInteractions(ctx, view.Detail.Lead.ID)
	if err != nil {
		s.logger.Warn("failed to reload interactions", "lead_id", view.Detail.Lead.ID, "error", err)
		return
	}
	view.Detail.Interactions = items
}

// refreshMetrics re-fetches the server-derived metrics. A failure keeps the
// previous numbers and marks them stale.
func (s *PipelineService) refreshMetrics(ctx context.Context, view *model.PipelineView) {
	metrics, err := s.api.Metrics(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh pipeline metrics", "error", err)
		view.MetricsStale = true
		return
	}
	view.Metrics = *metrics
	view.MetricsStale = false
}

func currentState(view *model.PipelineView, leadID int64) (model.LeadState, bool) {
	lead, ok := findLead(view, leadID)
	return lead.State, ok
}

func findLead(view *model.PipelineView, leadID int64) (model.Lead, bool) {
	if view.Detail != nil && view.Detail.Lead.ID == leadID {
		return view.Detail.Lead, true
	}
	for _, l := range view.Leads {
		if l.ID == leadID {
			return l, true
		}
	}
	return model.Lead{}, false
}

func validateInteraction(in model.Interaction) error {
	switch in.Type {
	case model.InteractionCall, model.InteractionEmail, model.InteractionMeeting,
		model.InteractionWhatsApp, model.InteractionOther:
	case model.InteractionPurchase:
		if in.Value == nil || *in.Value <= 0 {
			return &model.ValidationError{Field: "valor", Message: "una compra debe tener un valor positivo"}
		}
	default:
		return &model.ValidationError{Field: "tipo", Message: fmt.Sprintf("tipo de interacción desconocido %q", in.Type)}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &model.ValidationError{Field: "descripcion", Message: "la descripción es obligatoria"}
	}
	return nil
}

func contactLink(lead model.Lead, channel ContactChannel) (string, model.InteractionType, error) {
	switch channel {
	case ContactCall:
		if lead.Phone == "" {
			return "", "", &model.ValidationError{Field: "telefono", Message: "el lead no tiene teléfono"}
		}
		return "tel:" + lead.Phone, model.InteractionCall, nil
	case ContactWhatsApp:
		digits := onlyDigits(lead.Phone)
		if digits == "" {
			return "", "", &model.ValidationError{Field: "telefono", Message: "el lead no tiene teléfono"}
		}
		return "https://wa.me/" + digits, model.InteractionWhatsApp, nil
	case ContactEmail:
		if lead.Email == "" {
			return "", "", &model.ValidationError{Field: "email", Message: "el lead no tiene email"}
		}
		return (&url.URL{Scheme: "mailto", Opaque: lead.Email}).String(), model.InteractionEmail, nil
	default:
		return "", "", &model.ValidationError{Field: "canal", Message: fmt.Sprintf("canal desconocido %q", channel)}
	}
}

func contactDescription(channel ContactChannel) string {
	switch channel {
	case ContactCall:
		return "Llamada iniciada desde el panel"
	case ContactWhatsApp:
		return "Conversación de WhatsApp iniciada desde el panel"
	default:
		return "Email iniciado desde el panel"
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
