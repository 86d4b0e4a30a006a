package usecase

import (
	"context"

	"github.com/fastygo/assettrack/domain"
)

// AuthAPI exchanges credentials for a user and revokes tokens.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
}

// OrganizationAPI lists the organization memberships of the current token.
type OrganizationAPI interface {
	MyOrganizations(ctx context.Context) ([]domain.Membership, error)
}

// TokenSlot is the writable side of the API client's token provider.
type TokenSlot interface {
	Token() string
	Set(token string)
	Clear()
}

// LogoutBuffer keeps remote logouts that failed so they can be retried later.
type LogoutBuffer interface {
	BufferLogout(ctx context.Context, userID int64, token string) error
}
