package model

// Transition is one recommended next state offered for a lead.
type Transition struct {
	To    LeadState
	Label string
	Icon  string
}

// pipelineTransitions is the single transition table used by every view.
// Transitions are advisory; the API does not enforce them.
var pipelineTransitions = map[LeadState][]Transition{
	LeadStateNew: {
		{To: LeadStateContacted, Label: "Marcar contactado", Icon: "phone"},
		{To: LeadStateQualified, Label: "Calificar", Icon: "check"},
		{To: LeadStateLost, Label: "Descartar", Icon: "x"},
	},
	LeadStateContacted: {
		{To: LeadStateQualified, Label: "Calificar", Icon: "check"},
		{To: LeadStateProposal, Label: "Enviar propuesta", Icon: "file-text"},
		{To: LeadStateNew, Label: "Volver a nuevo", Icon: "rotate-ccw"},
	},
	LeadStateQualified: {
		{To: LeadStateProposal, Label: "Enviar propuesta", Icon: "file-text"},
		{To: LeadStateContacted, Label: "Volver a contactado", Icon: "rotate-ccw"},
	},
	LeadStateProposal: {
		{To: LeadStateNegotiation, Label: "Negociar", Icon: "handshake"},
		{To: LeadStateQualified, Label: "Volver a calificado", Icon: "rotate-ccw"},
	},
	LeadStateNegotiation: {
		{To: LeadStateWon, Label: "Marcar ganado", Icon: "trophy"},
		{To: LeadStateProposal, Label: "Volver a propuesta", Icon: "rotate-ccw"},
	},
	LeadStateWon: {
		{To: LeadStateNew, Label: "Reactivar", Icon: "refresh-cw"},
		{To: LeadStateLost, Label: "Marcar perdido", Icon: "x"},
	},
	LeadStateLost: {
		{To: LeadStateNew, Label: "Reactivar", Icon: "refresh-cw"},
		{To: LeadStateContacted, Label: "Recontactar", Icon: "phone"},
	},
}

// Transitions returns the next states offered from the given state. The
// returned slice is a copy; unknown states yield nil.
func Transitions(from LeadState) []Transition {
	offered := pipelineTransitions[from]
	if offered == nil {
		return nil
	}
	out := make([]Transition, len(offered))
	copy(out, offered)
	return out
}

// IsOffered reports whether to appears in the transition table for from.
func IsOffered(from, to LeadState) bool {
	for _, t := range pipelineTransitions[from] {
		if t.To == to {
			return true
		}
	}
	return false
}

// PipelineMetrics are the aggregates the API derives over all tenant leads.
type PipelineMetrics struct {
	TotalLeads          int               `json:"total_leads"`
	PipelineValue       Amount            `json:"valor_total_pipeline"`
	PurchaseValue       Amount            `json:"valor_total_compras"`
	AveragePurchaseFreq float64           `json:"frecuencia_promedio"`
	ByState             map[LeadState]int `json:"por_estado"`
}

// PipelineView is the state one operator sees on the pipeline board: the
// fetched leads, the lead open in the detail pane (if any) and the metrics.
type PipelineView struct {
	Leads        []Lead
	Detail       *LeadDetail
	Metrics      PipelineMetrics
	MetricsStale bool
}

// LeadFilter narrows the fetched lead list on the client side.
type LeadFilter struct {
	State    LeadState
	Search   string
	Page     int
	PageSize int
}
