package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Amount
	}{
		{`"150.00"`, 150},
		{`"100.5"`, 100.5},
		{`42`, 42},
		{`12.25`, 12.25},
		{`null`, 0},
		{`""`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var a model.Amount
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &a))
			assert.InDelta(t, float64(tt.want), float64(a), 1e-9)
		})
	}

	var a model.Amount
	assert.Error(t, json.Unmarshal([]byte(`"doce"`), &a))
}

func TestAmount_MarshalJSONUsesTwoDecimals(t *testing.T) {
	b, err := json.Marshal(model.Amount(7.5))
	require.NoError(t, err)
	assert.JSONEq(t, `"7.50"`, string(b))
}

func TestLeadStates(t *testing.T) {
	assert.Len(t, model.LeadStates, 7)
	for _, s := range model.LeadStates {
		assert.True(t, s.Valid())
		assert.NotEqual(t, string(s), s.Label())
	}
	assert.False(t, model.LeadState("archivado").Valid())
}

func TestIsOffered(t *testing.T) {
	assert.True(t, model.IsOffered(model.LeadStateNegotiation, model.LeadStateWon))
	assert.False(t, model.IsOffered(model.LeadStateNew, model.LeadStateWon))
	assert.Nil(t, model.Transitions("desconocido"))

	offered := model.Transitions(model.LeadStateNew)
	offered[0].To = model.LeadStateWon
	assert.Equal(t, model.LeadStateContacted, model.Transitions(model.LeadStateNew)[0].To, "callers get a copy")
}

func TestLeadInput_Validate(t *testing.T) {
	valid := model.LeadInput{Name: "Ana", Probability: 50, Source: model.LeadSourceReferral, EstimatedValue: 100}

	tests := []struct {
		name      string
		mutate    func(in *model.LeadInput)
		wantField string
	}{
		{"valid", func(*model.LeadInput) {}, ""},
		{"empty source allowed", func(in *model.LeadInput) { in.Source = "" }, ""},
		{"blank name", func(in *model.LeadInput) { in.Name = "  " }, "nombre"},
		{"probability above 100", func(in *model.LeadInput) { in.Probability = 101 }, "probabilidad"},
		{"unknown state", func(in *model.LeadInput) { in.State = "archivado" }, "estado"},
		{"unknown source", func(in *model.LeadInput) { in.Source = "radio" }, "fuente"},
		{"NaN value", func(in *model.LeadInput) { in.EstimatedValue = model.Amount(math.NaN()) }, "valor_estimado"},
		{"infinite value", func(in *model.LeadInput) { in.EstimatedValue = model.Amount(math.Inf(1)) }, "valor_estimado"},
		{"negative value", func(in *model.LeadInput) { in.EstimatedValue = -1 }, "valor_estimado"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			err := in.Validate()

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestLeadSources(t *testing.T) {
	assert.Len(t, model.LeadSources, 6)
	for _, s := range model.LeadSources {
		assert.True(t, s.Valid())
	}
	assert.False(t, model.LeadSource("radio").Valid())
}
