package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/assettrack/pkg/logger"
)

// HeaderRequestID carries the correlation id of an outbound call.
const HeaderRequestID = "X-Request-ID"

// Adapter bridges a stdlib context onto an outbound fasthttp request: it picks
// the effective deadline and stamps a request id.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Timeout returns the default per-request timeout.
func (a *Adapter) Timeout() time.Duration {
	return a.timeout
}

// Attach sets the request id header (reusing the one carried by ctx when
// present) and returns the enriched context plus the deadline to pass to
// fasthttp. The deadline is the earlier of the context deadline and now+timeout.
func (a *Adapter) Attach(ctx context.Context, req *fasthttp.Request) (context.Context, time.Time) {
	if ctx == nil {
		ctx = context.Background()
	}

	reqID := strings.TrimSpace(appLogger.RequestID(ctx))
	if reqID == "" {
		reqID = uuid.NewString()
		ctx = appLogger.ContextWithRequestID(ctx, reqID)
	}
	if req != nil {
		req.Header.Set(HeaderRequestID, reqID)
	}

	deadline := time.Now().Add(a.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return ctx, deadline
}
