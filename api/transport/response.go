package transport

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/fastygo/assettrack/domain"
)

// LoginResponse is the body returned by POST /log_in.
type LoginResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user,omitempty"`
	Error   Message      `json:"error,omitempty"`
}

// OrganizationsResponse is the body returned by GET /users/my_organizations.
type OrganizationsResponse struct {
	MyOrganizations []domain.Membership `json:"my_organizations"`
}

// Message is a server-provided error text. The backend sends it as a string,
// a list of strings or an object with a "message" field.
type Message string

func (m *Message) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*m = ""
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*m = Message(strings.TrimSpace(s))
		}
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err == nil {
			*m = Message(strings.TrimSpace(strings.Join(list, ", ")))
		}
	case '{':
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &obj); err == nil {
			*m = Message(strings.TrimSpace(obj.Message))
		}
	}
	return nil
}
