package session_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/assettrack/api/client"
	"github.com/fastygo/assettrack/domain"
	boltInfra "github.com/fastygo/assettrack/internal/infrastructure/bolt"
	"github.com/fastygo/assettrack/internal/testutil"
	"github.com/fastygo/assettrack/pkg/credentials"
	boltRepo "github.com/fastygo/assettrack/repository/bolt"
	"github.com/fastygo/assettrack/usecase/plan"
	"github.com/fastygo/assettrack/usecase/session"
)

const janeJSON = `{"id":7,"name":"Jane","email":"jane@example.com","authentication_token":"tok-7",
	"role":"employee","role_names":"[\"employee\"]","organization_id":5,"organization_name":"Acme"}`

func newManager(t *testing.T, backend *testutil.Backend, db *bbolt.DB) *session.Manager {
	t.Helper()
	tokens := credentials.NewSlot()
	api := client.New(client.Options{
		BaseURL: testutil.BackendBaseURL,
		Timeout: 2 * time.Second,
		Dial:    backend.Dial,
	}, tokens, nil)

	return session.New(session.Deps{
		Auth:      api,
		Orgs:      api,
		Validator: plan.New(api, nil),
		Store:     boltRepo.NewSessionRepository(db),
		Tokens:    tokens,
	}, nil)
}

func TestSessionOverHTTP(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddAccount("jane@example.com", "secret", janeJSON)
	backend.SetOrganizations("tok-7", `[
		{"organization_id":5,"organization_name":"Acme","role":"employee","is_plan_active":1},
		{"organization_id":9,"organization_name":"Beta","role":"approver","is_plan_active":true}
	]`)

	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "session.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	first := newManager(t, backend, db)
	res := first.Login(ctx, "jane@example.com", "secret")
	require.True(t, res.OK(), "%+v", res)
	assert.Equal(t, int64(5), res.Resolved.OrganizationID)
	assert.Equal(t, "Bearer tok-7", backend.LastHeader("/api/users/my_organizations", "Authorization"))

	orgs, derr := first.Organizations(ctx)
	require.Nil(t, derr)
	require.Len(t, orgs, 2)
	require.True(t, first.SwitchOrganization(ctx, orgs[1]).OK())

	// A fresh process restores the switched organization from disk.
	second := newManager(t, backend, db)
	res = second.Restore(ctx)
	require.True(t, res.OK(), "%+v", res)
	assert.Equal(t, &domain.Resolved{OrganizationID: 9, Role: "approver", OrganizationName: "Beta"}, res.Resolved)

	second.Logout(ctx)
	assert.Equal(t, []string{"tok-7"}, backend.LoggedOut())

	third := newManager(t, backend, db)
	res = third.Restore(ctx)
	assert.Nil(t, res.Err)
	assert.Equal(t, domain.StateUnauthenticated, res.State)
}

func TestSessionOverHTTP_InvalidCredentials(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddAccount("jane@example.com", "secret", janeJSON)
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "session.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	res := newManager(t, backend, db).Login(context.Background(), "jane@example.com", "wrong")

	require.NotNil(t, res.Err)
	assert.Equal(t, domain.ErrCodeInvalidCredentials, res.Err.Code)
	assert.Zero(t, backend.Calls("/api/users/my_organizations"))

	user, err := boltRepo.NewSessionRepository(db).LoadUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSessionOverHTTP_RevokedTokenOnRestore(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddAccount("jane@example.com", "secret", janeJSON)
	backend.SetOrganizations("tok-7", `[{"organization_id":5,"organization_name":"Acme","role":"employee","is_plan_active":true}]`)
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "session.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	require.True(t, newManager(t, backend, db).Login(ctx, "jane@example.com", "secret").OK())
	backend.SetOrganizationsStatus(401)

	res := newManager(t, backend, db).Restore(ctx)

	require.NotNil(t, res.Err)
	assert.Equal(t, domain.ErrCodeSessionExpired, res.Err.Code)
	assert.True(t, res.Err.Silent())
}
