package httpcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/assettrack/pkg/logger"
)

func TestAttach_GeneratesRequestID(t *testing.T) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	ctx, deadline := NewAdapter(time.Second).Attach(context.Background(), req)

	id := string(req.Header.Peek(HeaderRequestID))
	assert.NotEmpty(t, id)
	assert.Equal(t, id, appLogger.RequestID(ctx))
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 200*time.Millisecond)
}

func TestAttach_ReusesRequestIDAndEarlierDeadline(t *testing.T) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	parent, cancel := context.WithTimeout(appLogger.ContextWithRequestID(context.Background(), "req-1"), 50*time.Millisecond)
	defer cancel()
	want, _ := parent.Deadline()

	_, deadline := NewAdapter(time.Minute).Attach(parent, req)

	assert.Equal(t, "req-1", string(req.Header.Peek(HeaderRequestID)))
	assert.Equal(t, want, deadline)
}

func TestNewAdapter_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, NewAdapter(0).Timeout())
}
