package bolt

import (
	"context"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/assettrack/domain"
	boltInfra "github.com/fastygo/assettrack/internal/infrastructure/bolt"
	"github.com/fastygo/assettrack/repository"
)

type sessionRepository struct {
	db     *bbolt.DB
	bucket []byte
}

// NewSessionRepository creates a BoltDB-backed session repository. The bucket
// must already exist; see internal/infrastructure/bolt.Open.
func NewSessionRepository(db *bbolt.DB) repository.SessionRepository {
	return &sessionRepository{
		db:     db,
		bucket: []byte(boltInfra.BucketSession),
	}
}

func (r *sessionRepository) LoadUser(ctx context.Context) (*domain.User, error) {
	raw, err := r.get(repository.KeyUserSession)
	if err != nil {
		return nil, err
	}
	return repository.DecodeUser(raw)
}

func (r *sessionRepository) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return repository.ErrEmptyRecord
	}
	return r.put(map[string]interface{}{repository.KeyUserSession: user})
}

func (r *sessionRepository) ClearUser(ctx context.Context) error {
	return r.delete(repository.KeyUserSession)
}

func (r *sessionRepository) LoadActiveOrganization(ctx context.Context) (*domain.ActiveOrganization, error) {
	raw, err := r.get(repository.KeyActiveOrg)
	if err != nil {
		return nil, err
	}
	return repository.DecodeActiveOrganization(raw)
}

func (r *sessionRepository) SaveActiveOrganization(ctx context.Context, org *domain.ActiveOrganization) error {
	if org == nil {
		return repository.ErrEmptyRecord
	}
	return r.put(map[string]interface{}{repository.KeyActiveOrg: org})
}

func (r *sessionRepository) ClearActiveOrganization(ctx context.Context) error {
	return r.delete(repository.KeyActiveOrg)
}

func (r *sessionRepository) SaveSession(ctx context.Context, user *domain.User, org *domain.ActiveOrganization) error {
	if user == nil || org == nil {
		return repository.ErrEmptyRecord
	}
	return r.put(map[string]interface{}{
		repository.KeyUserSession: user,
		repository.KeyActiveOrg:   org,
	})
}

func (r *sessionRepository) Clear(ctx context.Context) error {
	return r.delete(repository.KeyUserSession, repository.KeyActiveOrg)
}

func (r *sessionRepository) get(key string) ([]byte, error) {
	if r.db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}
	var raw []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(r.bucket).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	return raw, err
}

// put encodes every record before opening the write transaction so a
// marshal failure never leaves a partial write behind.
func (r *sessionRepository) put(records map[string]interface{}) error {
	if r.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	payloads := make(map[string][]byte, len(records))
	for key, record := range records {
		payload, err := repository.Marshal(record)
		if err != nil {
			return err
		}
		payloads[key] = payload
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(r.bucket)
		for key, payload := range payloads {
			if err := b.Put([]byte(key), payload); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sessionRepository) delete(keys ...string) error {
	if r.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(r.bucket)
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}
