package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFlag_Coercion(t *testing.T) {
	tests := []struct {
		raw    string
		active bool
	}{
		{`true`, true},
		{`1`, true},
		{`1.0`, true},
		{`false`, false},
		{`0`, false},
		{`2`, false},
		{`-1`, false},
		{`"1"`, false},
		{`"true"`, false},
		{`null`, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var m Membership
			require.NoError(t, json.Unmarshal([]byte(`{"organization_id":7,"is_plan_active":`+tt.raw+`}`), &m))
			assert.Equal(t, tt.active, m.PlanActive.Active())
			assert.Equal(t, int64(7), m.OrganizationID)
		})
	}
}

func TestPlanFlag_AbsentIsInactive(t *testing.T) {
	var m Membership
	require.NoError(t, json.Unmarshal([]byte(`{"organization_id":7}`), &m))
	assert.False(t, m.PlanActive.Active())
}

func TestPlanFlag_EncodesAsBool(t *testing.T) {
	var m Membership
	require.NoError(t, json.Unmarshal([]byte(`{"is_plan_active":1}`), &m))

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"is_plan_active":true`)
}

func TestActiveOrganizationFor(t *testing.T) {
	assert.Nil(t, ActiveOrganizationFor(nil))

	org := ActiveOrganizationFor(&User{OrganizationID: 3, OrganizationName: "Acme", Role: "approver"})
	assert.Equal(t, &ActiveOrganization{OrganizationID: 3, Name: "Acme", Role: "approver"}, org)
}
