package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// LeadState is the position of a lead in the sales pipeline.
type LeadState string

const (
	LeadStateNew         LeadState = "nuevo"
	LeadStateContacted   LeadState = "contactado"
	LeadStateQualified   LeadState = "calificado"
	LeadStateProposal    LeadState = "propuesta"
	LeadStateNegotiation LeadState = "negociacion"
	LeadStateWon         LeadState = "ganado"
	LeadStateLost        LeadState = "perdido"
)

// LeadStates lists every pipeline state in board order.
var LeadStates = []LeadState{
	LeadStateNew,
	LeadStateContacted,
	LeadStateQualified,
	LeadStateProposal,
	LeadStateNegotiation,
	LeadStateWon,
	LeadStateLost,
}

// Valid reports whether s is one of the seven pipeline states.
func (s LeadState) Valid() bool {
	for _, known := range LeadStates {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the display name of the state.
func (s LeadState) Label() string {
	switch s {
	case LeadStateNew:
		return "Nuevo"
	case LeadStateContacted:
		return "Contactado"
	case LeadStateQualified:
		return "Calificado"
	case LeadStateProposal:
		return "Propuesta"
	case LeadStateNegotiation:
		return "Negociación"
	case LeadStateWon:
		return "Ganado"
	case LeadStateLost:
		return "Perdido"
	default:
		return string(s)
	}
}

// LeadSource records where a lead came from.
type LeadSource string

const (
	LeadSourceManual     LeadSource = "manual"
	LeadSourceStorefront LeadSource = "tienda"
	LeadSourceEcommerce  LeadSource = "ecommerce"
	LeadSourceSocial     LeadSource = "redes_sociales"
	LeadSourceReferral   LeadSource = "referido"
	LeadSourceOther      LeadSource = "otro"
)

// LeadSources lists every lead source.
var LeadSources = []LeadSource{
	LeadSourceManual,
	LeadSourceStorefront,
	LeadSourceEcommerce,
	LeadSourceSocial,
	LeadSourceReferral,
	LeadSourceOther,
}

// Valid reports whether s is one of the known sources.
func (s LeadSource) Valid() bool {
	for _, known := range LeadSources {
		if s == known {
			return true
		}
	}
	return false
}

// Lead is a sales-pipeline entity owned by the tenant API.
type Lead struct {
	ID                int64      `json:"id"`
	Name              string     `json:"nombre"`
	Email             string     `json:"email"`
	Phone             string     `json:"telefono"`
	EstimatedValue    Amount     `json:"valor_estimado"`
	Probability       int        `json:"probabilidad"`
	Source            LeadSource `json:"fuente"`
	Notes             string     `json:"notas"`
	State             LeadState  `json:"estado"`
	PurchaseCount     int        `json:"total_compras"`
	PurchaseTotal     Amount     `json:"valor_total_compras"`
	PurchaseFrequency float64    `json:"frecuencia_compra"`
	UpdatedAt         time.Time  `json:"fecha_actualizacion"`
}

// LeadInput carries the editable fields of a lead for create and update calls.
type LeadInput struct {
	Name           string     `json:"nombre"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"telefono,omitempty"`
	EstimatedValue Amount     `json:"valor_estimado"`
	Probability    int        `json:"probabilidad"`
	Source         LeadSource `json:"fuente"`
	Notes          string     `json:"notas,omitempty"`
	State          LeadState  `json:"estado,omitempty"`
}

// Validate checks the input before it is sent to the API.
func (in LeadInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "nombre", Message: "el nombre es obligatorio"}
	}
	if in.Probability < 0 || in.Probability > 100 {
		return &ValidationError{Field: "probabilidad", Message: "la probabilidad debe estar entre 0 y 100"}
	}
	if in.State != "" && !in.State.Valid() {
		return &ValidationError{Field: "estado", Message: fmt.Sprintf("estado desconocido %q", in.State)}
	}
	if in.Source != "" && !in.Source.Valid() {
		return &ValidationError{Field: "fuente", Message: fmt.Sprintf("fuente desconocida %q", in.Source)}
	}
	if !in.EstimatedValue.Finite() || in.EstimatedValue < 0 {
		return &ValidationError{Field: "valor_estimado", Message: "el valor debe ser un importe positivo"}
	}
	return nil
}

// InteractionType classifies a contact event.
type InteractionType string

const (
	InteractionCall     InteractionType = "llamada"
	InteractionEmail    InteractionType = "email"
	InteractionMeeting  InteractionType = "reunion"
	InteractionPurchase InteractionType = "compra"
	InteractionWhatsApp InteractionType = "whatsapp"
	InteractionOther    InteractionType = "otro"
)

// Interaction is a timestamped contact record attached to a lead.
type Interaction struct {
	ID          int64           `json:"id"`
	Type        InteractionType `json:"tipo"`
	Description string          `json:"descripcion"`
	Value       *Amount         `json:"valor,omitempty"`
	CreatedAt   time.Time       `json:"fecha"`
}

// LeadDetail is a lead together with its ordered interactions.
type LeadDetail struct {
	Lead         Lead
	Interactions []Interaction
}

// Amount is a monetary value. The API sends it either as a decimal string or
// as a JSON number.
type Amount float64

// UnmarshalJSON accepts "100", "100.50", 100, 100.5 and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*a = 0
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", raw, err)
	}
	*a = Amount(v)
	return nil
}

// MarshalJSON writes the amount as a two-decimal string, the form the API expects.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// Finite reports whether the amount is neither NaN nor infinite.
func (a Amount) Finite() bool {
	return !math.IsNaN(float64(a)) && !math.IsInf(float64(a), 0)
}

// String formats the amount with two decimals.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}
