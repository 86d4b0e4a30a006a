package services

import (
	"context"

	"github.com/fastygo/assettrack/internal/infrastructure/buffer"
	"github.com/fastygo/assettrack/usecase"
)

// BufferBridge adapts the outbox processor to the session manager's port.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

// BufferLogout queues a failed remote logout for retry.
func (b *BufferBridge) BufferLogout(ctx context.Context, userID int64, token string) error {
	if b.processor == nil {
		return errProcessorMissing
	}
	if token == "" {
		return nil
	}
	return b.processor.Enqueue(ctx, buffer.Item{
		UserID:    userID,
		Operation: buffer.OperationLogout,
		Token:     token,
	})
}

var _ usecase.LogoutBuffer = (*BufferBridge)(nil)
