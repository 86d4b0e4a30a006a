package buffer

import (
	"time"

	"github.com/google/uuid"
)

// OperationLogout revokes a token on the backend.
const OperationLogout = "logout"

// Item is a remote call that failed and should be retried once the backend
// is reachable again.
type Item struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Operation string    `json:"operation"`
	Token     string    `json:"token"`
	Retries   int       `json:"retries"`
	Timestamp time.Time `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Operation == "" {
		i.Operation = OperationLogout
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
