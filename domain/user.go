package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// User represents the signed-in identity as returned by the backend.
type User struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	AuthenticationToken string   `json:"authentication_token"`
	Role                string   `json:"role"`
	RoleNames           RoleList `json:"role_names"`
	OrganizationID      int64    `json:"organization_id"`
	OrganizationName    string   `json:"organization_name"`
}

// HasToken reports whether the user carries an authentication token.
func (u *User) HasToken() bool {
	return u != nil && u.AuthenticationToken != ""
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.RoleNames != nil {
		cp.RoleNames = append(RoleList{}, u.RoleNames...)
	}
	return &cp
}

// ApplyMembership points the user at the organization described by m. The
// membership role always replaces role_names since those were issued for the
// previous organization; an empty role leaves no role names at all.
func (u *User) ApplyMembership(m Membership) {
	u.OrganizationID = m.OrganizationID
	u.OrganizationName = m.OrganizationName
	u.Role = m.Role
	u.RoleNames = nil
	if strings.TrimSpace(m.Role) != "" {
		u.RoleNames = RoleList{m.Role}
	}
}

// RoleList is the ordered list of role names. Legacy producers persist it as a
// JSON-encoded string; both forms decode to a list.
type RoleList []string

func (r *RoleList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			*r = RoleList{}
			return nil
		}
		var list []string
		if err := json.Unmarshal([]byte(encoded), &list); err != nil {
			*r = RoleList{}
			return nil
		}
		*r = list
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		*r = RoleList{}
		return nil
	}
	*r = list
	return nil
}
