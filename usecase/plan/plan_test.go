package plan

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/assettrack/domain"
)

type stubOrgs struct {
	memberships []domain.Membership
	err         error
	calls       int
}

func (s *stubOrgs) MyOrganizations(ctx context.Context) ([]domain.Membership, error) {
	s.calls++
	return s.memberships, s.err
}

func memberships(t *testing.T, raw string) []domain.Membership {
	t.Helper()
	var out []domain.Membership
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestDecide_ContinueOnActiveCurrent(t *testing.T) {
	user := &domain.User{OrganizationID: 5, OrganizationName: "Acme"}
	list := memberships(t, `[{"organization_id":5,"organization_name":"Acme","role":"employee","is_plan_active":true}]`)

	outcome := Decide(5, user, list)

	assert.Equal(t, Continue, outcome.Kind)
	assert.Equal(t, int64(5), outcome.Membership.OrganizationID)
	assert.False(t, outcome.NameChanged)
	assert.Nil(t, outcome.Reason)
}

func TestDecide_IntegerFlagCountsAsActive(t *testing.T) {
	list := memberships(t, `[{"organization_id":5,"organization_name":"Acme","role":"employee","is_plan_active":1}]`)

	outcome := Decide(5, &domain.User{OrganizationID: 5, OrganizationName: "Acme"}, list)

	assert.Equal(t, Continue, outcome.Kind)
}

func TestDecide_SwitchToFirstActive(t *testing.T) {
	list := memberships(t, `[
		{"organization_id":5,"organization_name":"Acme","role":"employee","is_plan_active":false},
		{"organization_id":9,"organization_name":"Beta","role":"approver","is_plan_active":true},
		{"organization_id":12,"organization_name":"Gamma","role":"employee","is_plan_active":true}
	]`)

	outcome := Decide(5, &domain.User{OrganizationID: 5}, list)

	require.Equal(t, SwitchTo, outcome.Kind)
	assert.Equal(t, int64(9), outcome.Membership.OrganizationID)
	assert.Equal(t, "approver", outcome.Membership.Role)
}

func TestDecide_CurrentMissingFromListing(t *testing.T) {
	list := memberships(t, `[{"organization_id":9,"organization_name":"Beta","role":"approver","is_plan_active":1}]`)

	outcome := Decide(5, &domain.User{OrganizationID: 5}, list)

	require.Equal(t, SwitchTo, outcome.Kind)
	assert.Equal(t, int64(9), outcome.Membership.OrganizationID)
}

func TestDecide_ForceLogout(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty listing", `[]`},
		{"all inactive", `[{"organization_id":5,"is_plan_active":false},{"organization_id":6,"is_plan_active":0}]`},
		{"string flags are inactive", `[{"organization_id":5,"is_plan_active":"1"},{"organization_id":6,"is_plan_active":"true"}]`},
		{"null flag", `[{"organization_id":5,"is_plan_active":null}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Decide(5, &domain.User{OrganizationID: 5}, memberships(t, tt.raw))
			assert.Equal(t, ForceLogout, outcome.Kind)
			require.NotNil(t, outcome.Reason)
			assert.Equal(t, domain.ErrCodePlanInactive, outcome.Reason.Code)
		})
	}
}

func TestDecide_NameChanged(t *testing.T) {
	list := memberships(t, `[{"organization_id":5,"organization_name":"Acme Corp","role":"employee","is_plan_active":true}]`)
	user := &domain.User{OrganizationID: 5, OrganizationName: "Acme"}

	outcome := Decide(5, user, list)
	require.Equal(t, Continue, outcome.Kind)
	assert.True(t, outcome.NameChanged)

	next := outcome.Apply(user)
	assert.Equal(t, "Acme Corp", next.OrganizationName)
	assert.Equal(t, "Acme", user.OrganizationName, "input user must not be mutated")
}

func TestOutcomeApply_SwitchReplacesRoles(t *testing.T) {
	user := &domain.User{
		ID:               1,
		Role:             "employee",
		RoleNames:        domain.RoleList{"employee"},
		OrganizationID:   5,
		OrganizationName: "Acme",
	}
	outcome := Outcome{Kind: SwitchTo, Membership: domain.Membership{
		OrganizationID: 9, OrganizationName: "Beta", Role: "approver", PlanActive: true,
	}}

	next := outcome.Apply(user)

	require.NotNil(t, next)
	assert.Equal(t, int64(9), next.OrganizationID)
	assert.Equal(t, "Beta", next.OrganizationName)
	assert.Equal(t, "approver", next.Role)
	assert.Equal(t, domain.RoleList{"approver"}, next.RoleNames)
	assert.Equal(t, int64(5), user.OrganizationID)
}

func TestOutcomeApply_ForceLogout(t *testing.T) {
	assert.Nil(t, Outcome{}.Apply(&domain.User{ID: 1}))
	assert.Nil(t, Outcome{Kind: Continue}.Apply(nil))
}

func TestValidate_ListingErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code domain.ErrorCode
	}{
		{"expired token", domain.ErrSessionExpired, domain.ErrCodeSessionExpired},
		{"transport failure", errors.New("dial tcp: connection refused"), domain.ErrCodeNetwork},
		{"classified network", domain.WrapError(domain.ErrCodeNetwork, "timeout", errors.New("deadline")), domain.ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orgs := &stubOrgs{err: tt.err}
			outcome := New(orgs, nil).Validate(context.Background(), 5, &domain.User{OrganizationID: 5})

			assert.Equal(t, ForceLogout, outcome.Kind)
			require.NotNil(t, outcome.Reason)
			assert.Equal(t, tt.code, outcome.Reason.Code)
			assert.Equal(t, 1, orgs.calls)
		})
	}
}

func TestValidate_UsesListing(t *testing.T) {
	orgs := &stubOrgs{memberships: []domain.Membership{
		{OrganizationID: 5, OrganizationName: "Acme", Role: "employee", PlanActive: true},
	}}

	outcome := New(orgs, nil).Validate(context.Background(), 5, &domain.User{OrganizationID: 5, OrganizationName: "Acme"})

	assert.Equal(t, Continue, outcome.Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "force_logout", ForceLogout.String())
	assert.Equal(t, "continue", Continue.String())
	assert.Equal(t, "switch_to", SwitchTo.String())
}
