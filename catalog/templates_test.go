package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplates(t *testing.T) {
	assert.ElementsMatch(t, []string{"joint_investigation", "coordinated_approval", "joint_monitoring"}, TemplateNames())

	tpl, ok := Template("joint_investigation")
	assert.True(t, ok)
	assert.Len(t, tpl.Stages, 6)
	assert.Equal(t, "initial_assessment", tpl.Stages[0].Name)
	assert.Equal(t, OwnerPrimary, tpl.Stages[0].OwnerSymbol)
	assert.Equal(t, OwnerRelevant, tpl.Stages[5].OwnerSymbol)

	_, ok = Template("bespoke_process")
	assert.False(t, ok)
}

func TestResolveOwner(t *testing.T) {
	involved := []string{AgencyOSC, AgencyFCAC, AgencyOSC}

	tests := []struct {
		name         string
		symbol       string
		jurisdiction string
		want         []string
	}{
		{"Primary resolves to lead agency", OwnerPrimary, "ON", []string{AgencyOSFI}},
		{"Empty symbol falls back to primary", "", "ON", []string{AgencyOSFI}},
		{"All includes primary first, deduplicated", OwnerAll, "ON", []string{AgencyOSFI, AgencyOSC, AgencyFCAC}},
		{"Relevant adds the provincial regulator", OwnerRelevant, "QC", []string{AgencyOSFI, AgencyAMF}},
		{"Relevant without provincial regulator is primary only", OwnerRelevant, "federal", []string{AgencyOSFI}},
		{"Literal agency code passes through", AgencyFINTRAC, "ON", []string{AgencyFINTRAC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveOwner(tt.symbol, AgencyOSFI, involved, tt.jurisdiction)
			assert.Equal(t, tt.want, got)
			// The lead agency is always first.
			if tt.symbol != AgencyFINTRAC {
				assert.Equal(t, AgencyOSFI, got[0])
			}
		})
	}
}

func TestResolveOwner_RelevantWhenPrimaryIsProvincial(t *testing.T) {
	got := ResolveOwner(OwnerRelevant, AgencyOSC, nil, "ON")
	assert.Equal(t, []string{AgencyOSC}, got)
}
