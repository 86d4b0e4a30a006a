package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/assettrack/domain"
	"github.com/fastygo/assettrack/repository"
	"github.com/fastygo/assettrack/usecase"
	"github.com/fastygo/assettrack/usecase/access"
	"github.com/fastygo/assettrack/usecase/plan"
)

// PlanValidator decides whether the session may stay on an organization.
type PlanValidator interface {
	Validate(ctx context.Context, currentOrgID int64, user *domain.User) plan.Outcome
}

// Deps groups the collaborators of a Manager. Outbox and Events are optional.
type Deps struct {
	Auth      usecase.AuthAPI
	Orgs      usecase.OrganizationAPI
	Validator PlanValidator
	Store     repository.SessionRepository
	Tokens    usecase.TokenSlot
	Outbox    usecase.LogoutBuffer
	Events    *usecase.Broadcaster
}

// Result is returned by every public operation. Err carries one of the
// taxonomy codes; Stale marks an outcome discarded because a newer operation
// took over the session.
type Result struct {
	State    domain.State
	Resolved *domain.Resolved
	Err      *domain.Error
	Stale    bool
}

// OK reports whether the operation completed and was applied.
func (r Result) OK() bool {
	return r.Err == nil && !r.Stale
}

// Snapshot is a consistent view of the session for the navigation layer.
type Snapshot struct {
	State         domain.State
	Generation    uint64
	User          *domain.User
	Organization  *domain.ActiveOrganization
	Resolved      *domain.Resolved
	Capabilities  access.Capabilities
	Screens       access.ScreenAccess
	Menu          []access.MenuItem
	InitialScreen string
}

// Manager owns the session state machine. Every writer of the persisted
// session goes through it so the user and active organization stay paired.
//
// Network calls run outside the lock. Each operation captures the generation
// when it starts and applies its outcome only if the generation is unchanged,
// so a slow validation can never overwrite a later logout or switch.
type Manager struct {
	auth      usecase.AuthAPI
	orgs      usecase.OrganizationAPI
	validator PlanValidator
	store     repository.SessionRepository
	tokens    usecase.TokenSlot
	outbox    usecase.LogoutBuffer
	events    *usecase.Broadcaster
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.Mutex
	state      domain.State
	generation uint64
	user       *domain.User
	org        *domain.ActiveOrganization
	logoutDone chan struct{}
	pending    []domain.Event
}

func New(deps Deps, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Events == nil {
		deps.Events = usecase.NewBroadcaster()
	}
	return &Manager{
		auth:      deps.Auth,
		orgs:      deps.Orgs,
		validator: deps.Validator,
		store:     deps.Store,
		tokens:    deps.Tokens,
		outbox:    deps.Outbox,
		events:    deps.Events,
		logger:    logger,
		now:       time.Now,
		state:     domain.StateUnauthenticated,
	}
}

// Events returns the broadcaster the manager publishes state changes on.
func (m *Manager) Events() *usecase.Broadcaster {
	return m.events
}

// Snapshot returns the current state with the derived access sets.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.unlock()

	snap := Snapshot{
		State:      m.state,
		Generation: m.generation,
		Resolved:   m.resolvedLocked(),
	}
	if m.state == domain.StateAuthenticated && m.user != nil {
		snap.User = m.user.Clone()
		if m.org != nil {
			org := *m.org
			snap.Organization = &org
		}
		snap.Capabilities = access.CapabilitiesForUser(m.user)
		snap.Screens = access.CapabilitiesToScreenAccess(snap.Capabilities)
		snap.Menu = access.MenuFor(snap.Screens)
		snap.InitialScreen = access.InitialScreen(m.user)
	}
	return snap
}

// unlock releases the mutex and then delivers the events queued while it was
// held, so subscribers may call back into the manager.
func (m *Manager) unlock() {
	events := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, e := range events {
		m.events.Publish(e)
	}
}

func (m *Manager) setStateLocked(state domain.State, reset bool) {
	m.state = state
	m.pending = append(m.pending, domain.Event{
		State:           state,
		Resolved:        m.resolvedLocked(),
		ResetNavigation: reset,
		Generation:      m.generation,
	})
}

// beginLocked starts a new operation generation in the given state.
func (m *Manager) beginLocked(state domain.State) uint64 {
	m.generation++
	m.setStateLocked(state, false)
	return m.generation
}

func (m *Manager) resolvedLocked() *domain.Resolved {
	if m.state != domain.StateAuthenticated || m.user == nil {
		return nil
	}
	return &domain.Resolved{
		OrganizationID:   m.user.OrganizationID,
		Role:             access.ResolveEffectiveRole(m.user),
		OrganizationName: m.user.OrganizationName,
	}
}

func (m *Manager) currentLocked() Result {
	return Result{State: m.state, Resolved: m.resolvedLocked()}
}

func (m *Manager) staleLocked() Result {
	res := m.currentLocked()
	res.Stale = true
	return res
}

// resetLocked drops the in-memory and persisted session and the API token.
func (m *Manager) resetLocked(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("failed to clear persisted session", zap.Error(err))
	}
	m.tokens.Clear()
	m.user = nil
	m.org = nil
	m.setStateLocked(domain.StateUnauthenticated, false)
}

func storageError(err error) *domain.Error {
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Code == domain.ErrCodeStorageCorrupt {
		return dErr
	}
	return domain.WrapError(domain.ErrCodeStorageCorrupt, "failed to persist session", err)
}
