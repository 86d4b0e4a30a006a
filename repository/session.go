package repository

import (
	"context"

	"github.com/fastygo/assettrack/domain"
)

// Storage keys shared by every SessionRepository implementation.
const (
	KeyUserSession = "user_session"
	KeyActiveOrg   = "active_org"
)

// SessionRepository persists the signed-in user and the active organization.
// Load methods return (nil, nil) when nothing is stored and
// domain.ErrStorageCorrupt when the stored record cannot be decoded.
type SessionRepository interface {
	LoadUser(ctx context.Context) (*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error
	ClearUser(ctx context.Context) error

	LoadActiveOrganization(ctx context.Context) (*domain.ActiveOrganization, error)
	SaveActiveOrganization(ctx context.Context, org *domain.ActiveOrganization) error
	ClearActiveOrganization(ctx context.Context) error

	// SaveSession writes both records in one transaction.
	SaveSession(ctx context.Context, user *domain.User, org *domain.ActiveOrganization) error
	// Clear removes both records in one transaction.
	Clear(ctx context.Context) error
}
