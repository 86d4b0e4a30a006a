package domain

import (
	"bytes"
	"encoding/json"
)

// Membership is one entry of the organization listing returned for the caller.
type Membership struct {
	OrganizationID   int64    `json:"organization_id"`
	OrganizationName string   `json:"organization_name"`
	Role             string   `json:"role"`
	PlanActive       PlanFlag `json:"is_plan_active"`
}

// ActiveOrganization is the organization context persisted next to the user.
type ActiveOrganization struct {
	OrganizationID int64  `json:"organization_id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
}

// ActiveOrganizationFor builds the persisted record matching the user's current organization.
func ActiveOrganizationFor(u *User) *ActiveOrganization {
	if u == nil {
		return nil
	}
	return &ActiveOrganization{
		OrganizationID: u.OrganizationID,
		Name:           u.OrganizationName,
		Role:           u.Role,
	}
}

// Resolved is the tuple handed to the navigation layer once a session is authenticated.
type Resolved struct {
	OrganizationID   int64  `json:"organization_id"`
	Role             string `json:"role"`
	OrganizationName string `json:"organization_name"`
}

// PlanFlag is the subscription flag of a membership. The backend sends either
// a bool or the legacy integer form; only true and 1 count as active. Strings,
// null and other numbers decode as inactive. It always encodes as a bool.
type PlanFlag bool

// Active reports whether the plan entitles access.
func (p PlanFlag) Active() bool {
	return bool(p)
}

func (p *PlanFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*p = false
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err == nil {
			*p = PlanFlag(b)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			if f, err := n.Float64(); err == nil && f == 1 {
				*p = true
			}
		}
	}
	return nil
}

func (p PlanFlag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(p))
}
