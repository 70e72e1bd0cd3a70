package model

// Preference is a small persisted UI preference, scoped per session context.
type Preference struct {
	Scope string
	Key   string
	Value string
}

// Preference keys used by the panel.
const (
	PrefLeadStateFilter = "leads.state_filter"
	PrefLeadPageSize    = "leads.page_size"
)
