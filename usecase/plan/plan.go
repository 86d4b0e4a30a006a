package plan

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/assettrack/domain"
	"github.com/fastygo/assettrack/usecase"
)

// Kind is the decision taken by the validator.
type Kind int

const (
	// ForceLogout is the zero value so an unset outcome never grants access.
	ForceLogout Kind = iota
	Continue
	SwitchTo
)

func (k Kind) String() string {
	switch k {
	case Continue:
		return "continue"
	case SwitchTo:
		return "switch_to"
	default:
		return "force_logout"
	}
}

// Outcome is the result of a plan validation.
type Outcome struct {
	Kind Kind
	// Membership is the organization to use for Continue and SwitchTo.
	Membership domain.Membership
	// NameChanged is set on Continue when the remote name differs from the cached one.
	NameChanged bool
	// Reason explains a ForceLogout.
	Reason *domain.Error
}

// Apply mutates a copy of user according to the outcome and returns it.
// ForceLogout returns nil.
func (o Outcome) Apply(user *domain.User) *domain.User {
	if user == nil || o.Kind == ForceLogout {
		return nil
	}
	next := user.Clone()
	switch o.Kind {
	case Continue:
		next.OrganizationName = o.Membership.OrganizationName
	case SwitchTo:
		next.ApplyMembership(o.Membership)
	}
	return next
}

// Validator checks whether the session's organization is still entitled.
type Validator struct {
	orgs   usecase.OrganizationAPI
	logger *zap.Logger
}

func New(orgs usecase.OrganizationAPI, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		orgs:   orgs,
		logger: logger,
	}
}

// Validate fetches the memberships of the current token and decides whether
// the session continues on currentOrgID, moves to the first organization with
// an active plan, or must be logged out.
func (v *Validator) Validate(ctx context.Context, currentOrgID int64, user *domain.User) Outcome {
	memberships, err := v.orgs.MyOrganizations(ctx)
	if err != nil {
		reason := domain.Classify(err)
		v.logger.Warn("organization listing failed", zap.String("code", string(reason.Code)), zap.Error(err))
		return Outcome{Kind: ForceLogout, Reason: reason}
	}
	return Decide(currentOrgID, user, memberships)
}

// Decide applies the validation rules to an already fetched listing.
func Decide(currentOrgID int64, user *domain.User, memberships []domain.Membership) Outcome {
	if len(memberships) == 0 {
		return Outcome{Kind: ForceLogout, Reason: domain.ErrNoActivePlan}
	}

	for _, m := range memberships {
		if m.OrganizationID != currentOrgID {
			continue
		}
		if m.PlanActive.Active() {
			cached := ""
			if user != nil {
				cached = user.OrganizationName
			}
			return Outcome{
				Kind:        Continue,
				Membership:  m,
				NameChanged: m.OrganizationName != cached,
			}
		}
		break
	}

	for _, m := range memberships {
		if m.PlanActive.Active() {
			return Outcome{Kind: SwitchTo, Membership: m}
		}
	}
	return Outcome{Kind: ForceLogout, Reason: domain.ErrNoActivePlan}
}
