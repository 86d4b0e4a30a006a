package repository

import (
	"encoding/json"
	"errors"

	"github.com/fastygo/assettrack/domain"
)

// DecodeUser decodes a persisted user record.
func DecodeUser(raw []byte) (*domain.User, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, domain.WrapError(domain.ErrCodeStorageCorrupt, domain.ErrStorageCorrupt.Message, err)
	}
	return &user, nil
}

// DecodeActiveOrganization decodes a persisted active organization record.
func DecodeActiveOrganization(raw []byte) (*domain.ActiveOrganization, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var org domain.ActiveOrganization
	if err := json.Unmarshal(raw, &org); err != nil {
		return nil, domain.WrapError(domain.ErrCodeStorageCorrupt, domain.ErrStorageCorrupt.Message, err)
	}
	return &org, nil
}

// ErrEmptyRecord is returned when a nil record is passed to a save method.
var ErrEmptyRecord = errors.New("refusing to persist empty record")

// Marshal serializes a whole record.
func Marshal(record interface{}) ([]byte, error) {
	return json.Marshal(record)
}
