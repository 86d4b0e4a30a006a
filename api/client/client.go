package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/assettrack/api/transport"
	"github.com/fastygo/assettrack/domain"
	"github.com/fastygo/assettrack/pkg/credentials"
	"github.com/fastygo/assettrack/pkg/httpcontext"
	appLogger "github.com/fastygo/assettrack/pkg/logger"
)

// Backend routes, relative to the configured base URL.
const (
	PathLogin         = "/log_in"
	PathLogout        = "/logout"
	PathOrganizations = "/users/my_organizations"
)

// Options configures the REST client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HealthPath is probed by Ping.
	HealthPath string
	// Dial overrides the transport dialer; tests use an in-memory listener.
	Dial fasthttp.DialFunc
}

// Client talks to the asset-tracking backend. It reads the bearer token from
// the injected TokenProvider on every call and never caches it.
type Client struct {
	http       *fasthttp.Client
	baseURL    string
	healthPath string
	userAgent  string
	tokens     credentials.TokenProvider
	adapter    *httpcontext.Adapter
	logger     *zap.Logger
}

// New builds a client.
func New(opts Options, tokens credentials.TokenProvider, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = credentials.Static("")
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "assettrack-client"
	}
	if opts.HealthPath == "" {
		opts.HealthPath = "/"
	}
	adapter := httpcontext.NewAdapter(opts.Timeout)

	return &Client{
		http: &fasthttp.Client{
			Name:                     opts.UserAgent,
			Dial:                     opts.Dial,
			ReadTimeout:              adapter.Timeout(),
			WriteTimeout:             adapter.Timeout(),
			NoDefaultUserAgentHeader: true,
		},
		baseURL:    opts.BaseURL,
		healthPath: opts.HealthPath,
		userAgent:  opts.UserAgent,
		tokens:     tokens,
		adapter:    adapter,
		logger:     logger,
	}
}

// Login exchanges credentials for a user carrying an authentication token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var body transport.LoginResponse
	status, err := c.do(ctx, http.MethodPost, PathLogin, transport.LoginRequest{
		Email:    email,
		Password: password,
	}, credentials.Static(""), &body)
	if err != nil {
		return nil, err
	}

	switch {
	case status >= http.StatusInternalServerError:
		return nil, domain.NewError(domain.ErrCodeNetwork, domain.ErrNetwork.Message)
	case status >= http.StatusBadRequest || !body.Success:
		msg := string(body.Error)
		if msg == "" {
			msg = domain.ErrInvalidCredentials.Message
		}
		return nil, domain.NewError(domain.ErrCodeInvalidCredentials, msg)
	case body.User == nil || !body.User.HasToken():
		return nil, domain.NewError(domain.ErrCodeNetwork, "unexpected login response")
	}
	return body.User, nil
}

// MyOrganizations lists every organization membership of the current token.
func (c *Client) MyOrganizations(ctx context.Context) ([]domain.Membership, error) {
	var body transport.OrganizationsResponse
	status, err := c.do(ctx, http.MethodGet, PathOrganizations, nil, c.tokens, &body)
	if err != nil {
		return nil, err
	}
	if err := statusError(status); err != nil {
		return nil, err
	}
	return body.MyOrganizations, nil
}

// Logout revokes token on the backend. The token is passed explicitly since
// the current slot may already have been cleared.
func (c *Client) Logout(ctx context.Context, token string) error {
	status, err := c.do(ctx, http.MethodPost, PathLogout, nil, credentials.Static(token), nil)
	if err != nil {
		return err
	}
	return statusError(status)
}

// Ping reports whether the backend answers at all. Any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.healthPath, nil, credentials.Static(""), nil)
	return err
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	payload interface{},
	tokens credentials.TokenProvider,
	out interface{},
) (int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	req.Header.SetUserAgent(c.userAgent)
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}
	if token := tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	ctx, deadline := c.adapter.Attach(ctx, req)
	log := appLogger.WithRequestID(ctx, c.logger).With(zap.String("method", method), zap.String("path", path))

	if err := ctx.Err(); err != nil {
		return 0, domain.WrapError(domain.ErrCodeNetwork, domain.ErrNetwork.Message, err)
	}

	started := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		log.Warn("backend request failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return 0, domain.WrapError(domain.ErrCodeNetwork, domain.ErrNetwork.Message, err)
	}

	status := resp.StatusCode()
	log.Debug("backend request completed", zap.Int("status", status), zap.Duration("elapsed", time.Since(started)))

	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil && status < http.StatusBadRequest {
			log.Warn("undecodable backend response", zap.Int("status", status), zap.Error(err))
			return status, domain.WrapError(domain.ErrCodeNetwork, "unexpected backend response", err)
		}
	}
	return status, nil
}

func statusError(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewError(domain.ErrCodeSessionExpired, domain.ErrSessionExpired.Message)
	case status >= http.StatusBadRequest:
		return domain.NewError(domain.ErrCodeNetwork, domain.ErrNetwork.Message)
	}
	return nil
}
