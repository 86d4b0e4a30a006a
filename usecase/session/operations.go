package session

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/fastygo/assettrack/domain"
	"github.com/fastygo/assettrack/usecase/plan"
)

// Login authenticates and resolves the organization to work under. It is
// accepted while unauthenticated or while a previous login/restore is still
// in flight (the newer call wins); otherwise the current state is returned
// with Stale set. A rejected login leaves any persisted session untouched.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	m.mu.Lock()
	switch m.state {
	case domain.StateAuthenticated, domain.StateLoggingOut:
		res := m.staleLocked()
		m.unlock()
		return res
	}
	gen := m.beginLocked(domain.StateAuthenticating)
	m.unlock()

	log := m.logger.With(zap.Uint64("generation", gen))
	user, err := m.auth.Login(ctx, email, password)
	if err != nil {
		reason := domain.Classify(err)
		log.Info("login failed", zap.String("code", string(reason.Code)))
		return m.abort(gen, reason)
	}

	log.Info("login succeeded", zap.Int64("user_id", user.ID), zap.Int64("organization_id", user.OrganizationID))
	return m.resolve(ctx, gen, user, true)
}

// Restore rebuilds the session from storage on startup. A missing session
// leaves the manager unauthenticated without error; an unreadable one is
// cleared and reported as StorageCorrupt.
func (m *Manager) Restore(ctx context.Context) Result {
	m.mu.Lock()
	if m.state != domain.StateUnauthenticated {
		res := m.currentLocked()
		m.unlock()
		return res
	}

	user, err := m.store.LoadUser(ctx)
	if err != nil {
		m.logger.Warn("discarding unreadable session", zap.Error(err))
		m.resetLocked(ctx)
		m.unlock()
		return Result{State: domain.StateUnauthenticated, Err: storageError(err)}
	}
	if user == nil || !user.HasToken() {
		m.unlock()
		return Result{State: domain.StateUnauthenticated}
	}
	if tokenExpired(user.AuthenticationToken, m.now().Unix()) {
		m.logger.Info("persisted token expired", zap.Int64("user_id", user.ID))
		m.resetLocked(ctx)
		m.unlock()
		return Result{State: domain.StateUnauthenticated, Err: domain.ErrSessionExpired}
	}

	// The user record is authoritative; the organization record is rewritten
	// once validation succeeds.
	org, err := m.store.LoadActiveOrganization(ctx)
	switch {
	case err != nil:
		m.logger.Warn("persisted organization unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
	case org != nil && org.OrganizationID != user.OrganizationID:
		m.logger.Warn("persisted organization out of sync with user",
			zap.Int64("user_org", user.OrganizationID),
			zap.Int64("active_org", org.OrganizationID))
	}

	gen := m.beginLocked(domain.StateResolving)
	m.tokens.Set(user.AuthenticationToken)
	m.unlock()
	return m.resolve(ctx, gen, user, false)
}

// Revalidate re-runs plan validation for an authenticated session, for
// instance when the app returns to the foreground.
func (m *Manager) Revalidate(ctx context.Context) Result {
	m.mu.Lock()
	if m.state != domain.StateAuthenticated || m.user == nil {
		res := m.currentLocked()
		res.Err = domain.ErrNotAuthenticated
		m.unlock()
		return res
	}
	user := m.user.Clone()
	gen := m.beginLocked(domain.StateResolving)
	m.unlock()
	return m.resolve(ctx, gen, user, false)
}

// SwitchOrganization moves an authenticated session to target. A target
// without an active plan is rejected before anything changes.
func (m *Manager) SwitchOrganization(ctx context.Context, target domain.Membership) Result {
	m.mu.Lock()
	defer m.unlock()

	if m.state != domain.StateAuthenticated || m.user == nil {
		res := m.currentLocked()
		res.Err = domain.ErrNotAuthenticated
		return res
	}
	if !target.PlanActive.Active() {
		res := m.currentLocked()
		res.Err = domain.ErrPlanInactive
		return res
	}

	next := m.user.Clone()
	next.ApplyMembership(target)
	org := domain.ActiveOrganizationFor(next)
	if err := m.store.SaveSession(ctx, next, org); err != nil {
		m.logger.Error("failed to persist organization switch", zap.Error(err))
		res := m.currentLocked()
		res.Err = storageError(err)
		return res
	}

	m.generation++
	m.user, m.org = next, org
	m.setStateLocked(domain.StateAuthenticated, true)
	m.logger.Info("organization switched", zap.Int64("organization_id", target.OrganizationID))
	return m.currentLocked()
}

// Organizations lists the memberships for the switch-organization screen.
// A rejected token ends the session.
func (m *Manager) Organizations(ctx context.Context) ([]domain.Membership, *domain.Error) {
	m.mu.Lock()
	if m.state != domain.StateAuthenticated {
		m.unlock()
		return nil, domain.ErrNotAuthenticated
	}
	gen := m.generation
	m.unlock()

	memberships, err := m.orgs.MyOrganizations(ctx)
	if err != nil {
		reason := domain.Classify(err)
		if reason.Code == domain.ErrCodeSessionExpired {
			m.fail(ctx, gen, reason)
		}
		return nil, reason
	}
	return memberships, nil
}

// Logout ends the session. The remote call is best effort: a failure is
// queued for retry and never blocks local clearing. Overlapping calls share
// one logout and storage is cleared once.
func (m *Manager) Logout(ctx context.Context) Result {
	m.mu.Lock()
	if m.state == domain.StateLoggingOut {
		done := m.logoutDone
		m.unlock()
		select {
		case <-done:
			return Result{State: domain.StateUnauthenticated}
		case <-ctx.Done():
			m.mu.Lock()
			res := m.staleLocked()
			m.unlock()
			return res
		}
	}

	var userID int64
	token := m.tokens.Token()
	if m.user != nil {
		userID = m.user.ID
		if token == "" {
			token = m.user.AuthenticationToken
		}
	}
	if m.state == domain.StateUnauthenticated {
		stored, err := m.store.LoadUser(ctx)
		if err != nil {
			m.resetLocked(ctx)
			m.unlock()
			return Result{State: domain.StateUnauthenticated}
		}
		if stored == nil {
			m.unlock()
			return Result{State: domain.StateUnauthenticated}
		}
		userID, token = stored.ID, stored.AuthenticationToken
	}

	m.generation++
	m.setStateLocked(domain.StateLoggingOut, false)
	done := make(chan struct{})
	m.logoutDone = done
	m.unlock()

	if token != "" {
		m.revoke(ctx, userID, token)
	}

	m.mu.Lock()
	m.resetLocked(ctx)
	m.logoutDone = nil
	close(done)
	m.unlock()

	m.logger.Info("logged out", zap.Int64("user_id", userID))
	return Result{State: domain.StateUnauthenticated}
}

func (m *Manager) revoke(ctx context.Context, userID int64, token string) {
	err := m.auth.Logout(ctx, token)
	if err == nil {
		return
	}
	if domain.IsDomainError(err, domain.ErrCodeSessionExpired) {
		return
	}
	m.logger.Warn("remote logout failed", zap.Int64("user_id", userID), zap.Error(err))
	if m.outbox == nil {
		return
	}
	if err := m.outbox.BufferLogout(ctx, userID, token); err != nil {
		m.logger.Error("failed to queue remote logout", zap.Error(err))
	}
}

// resolve runs plan validation for user under generation gen and applies
// the outcome if gen is still current. issued marks a token the backend just
// handed out; if it was superseded before reaching the token slot nobody
// else can revoke it.
func (m *Manager) resolve(ctx context.Context, gen uint64, user *domain.User, issued bool) Result {
	m.mu.Lock()
	if gen != m.generation {
		res := m.staleLocked()
		orphaned := issued && user.AuthenticationToken != m.tokens.Token()
		m.unlock()
		if orphaned {
			m.logger.Info("revoking token of superseded login", zap.Int64("user_id", user.ID))
			m.revoke(ctx, user.ID, user.AuthenticationToken)
		}
		return res
	}
	if m.state != domain.StateResolving {
		m.setStateLocked(domain.StateResolving, false)
	}
	m.tokens.Set(user.AuthenticationToken)
	m.unlock()

	outcome := m.validator.Validate(ctx, user.OrganizationID, user)

	m.mu.Lock()
	defer m.unlock()
	log := m.logger.With(zap.Uint64("generation", gen), zap.Stringer("outcome", outcome.Kind))

	if gen != m.generation {
		log.Info("discarding stale plan validation")
		return m.staleLocked()
	}

	if outcome.Kind == plan.ForceLogout {
		log.Info("plan validation forced logout")
		m.resetLocked(ctx)
		return Result{State: domain.StateUnauthenticated, Err: outcome.Reason}
	}

	next := outcome.Apply(user)
	org := domain.ActiveOrganizationFor(next)
	if err := m.store.SaveSession(ctx, next, org); err != nil {
		log.Error("failed to persist session", zap.Error(err))
		m.resetLocked(ctx)
		return Result{State: domain.StateUnauthenticated, Err: storageError(err)}
	}

	m.user, m.org = next, org
	m.setStateLocked(domain.StateAuthenticated, outcome.Kind == plan.SwitchTo)
	log.Info("session resolved", zap.Int64("organization_id", next.OrganizationID))
	return m.currentLocked()
}

// abort ends generation gen with reason if it is still current. Persisted
// state is left alone since nothing was written for this generation.
func (m *Manager) abort(gen uint64, reason *domain.Error) Result {
	m.mu.Lock()
	defer m.unlock()
	if gen != m.generation {
		return m.staleLocked()
	}
	m.tokens.Clear()
	m.user = nil
	m.org = nil
	m.setStateLocked(domain.StateUnauthenticated, false)
	return Result{State: domain.StateUnauthenticated, Err: reason}
}

// fail ends generation gen with reason if it is still current.
func (m *Manager) fail(ctx context.Context, gen uint64, reason *domain.Error) Result {
	m.mu.Lock()
	defer m.unlock()
	if gen != m.generation {
		return m.staleLocked()
	}
	m.resetLocked(ctx)
	return Result{State: domain.StateUnauthenticated, Err: reason}
}

// tokenExpired reports whether token is a JWT whose exp claim lies in the
// past. Opaque tokens are never considered expired here.
func tokenExpired(token string, now int64) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(now, false)
}
