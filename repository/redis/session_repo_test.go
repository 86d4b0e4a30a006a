package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/assettrack/domain"
	"github.com/fastygo/assettrack/internal/config"
	redisInfra "github.com/fastygo/assettrack/internal/infrastructure/redis"
	"github.com/fastygo/assettrack/repository"
	redisRepo "github.com/fastygo/assettrack/repository/redis"
)

// newRepo connects to the instance named by REDIS_URL. Each test gets its own
// key prefix and removes its keys afterwards.
func newRepo(t *testing.T) (repository.SessionRepository, func(key, value string)) {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redisInfra.NewClient(ctx, config.RedisConfig{URL: url})
	require.NoError(t, err)

	prefix := "assettrack-test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		client.Del(ctx, prefix+repository.KeyUserSession, prefix+repository.KeyActiveOrg)
		_ = client.Close()
	})

	put := func(key, value string) {
		require.NoError(t, client.Set(ctx, prefix+key, value, 0).Err())
	}
	return redisRepo.NewSessionRepository(client, prefix), put
}

func TestRedisSessionRepository_RoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	user := &domain.User{
		ID:                  3,
		AuthenticationToken: "tok",
		Role:                "approver",
		RoleNames:           domain.RoleList{"approver"},
		OrganizationID:      9,
		OrganizationName:    "Beta",
	}

	require.NoError(t, repo.SaveSession(ctx, user, domain.ActiveOrganizationFor(user)))

	loaded, err := repo.LoadUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, loaded)

	org, err := repo.LoadActiveOrganization(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), org.OrganizationID)

	require.NoError(t, repo.Clear(ctx))
	loaded, err = repo.LoadUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisSessionRepository_CorruptRecord(t *testing.T) {
	repo, put := newRepo(t)
	put(repository.KeyActiveOrg, "{")

	org, err := repo.LoadActiveOrganization(context.Background())

	assert.Nil(t, org)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorageCorrupt))
}
