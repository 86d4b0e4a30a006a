package bolt

import (
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Bucket names shared by the session repository and the logout outbox.
const (
	BucketSession = "session"
	BucketOutbox  = "outbox"
)

// Open initializes the BoltDB file and ensures every bucket exists.
func Open(path string, logger *zap.Logger) (*bbolt.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{BucketSession, BucketOutbox} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("bolt store opened", zap.String("path", path))
	return db, nil
}
