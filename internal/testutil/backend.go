package testutil

import (
	"encoding/json"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// BackendBaseURL is the base URL clients should use with Backend.Dial.
const BackendBaseURL = "http://backend.test/api"

type account struct {
	password string
	user     json.RawMessage
}

// Backend is an in-memory fake of the asset-tracking REST API.
type Backend struct {
	ln  *fasthttputil.InmemoryListener
	srv *fasthttp.Server

	mu           sync.Mutex
	accounts     map[string]account
	orgs         map[string]string
	orgsStatus   int
	logoutStatus int
	calls        map[string]int
	headers      map[string]map[string]string
	loggedOut    []string
}

// NewBackend starts a fake backend that is stopped when the test ends.
func NewBackend(tb testing.TB) *Backend {
	tb.Helper()

	b := &Backend{
		ln:       fasthttputil.NewInmemoryListener(),
		accounts: make(map[string]account),
		orgs:     make(map[string]string),
		calls:    make(map[string]int),
		headers:  make(map[string]map[string]string),
	}

	r := router.New()
	r.GET("/api/", b.health)
	r.POST("/api/log_in", b.login)
	r.GET("/api/users/my_organizations", b.organizations)
	r.POST("/api/logout", b.logout)

	b.srv = &fasthttp.Server{Handler: r.Handler}
	go func() {
		_ = b.srv.Serve(b.ln)
	}()
	tb.Cleanup(func() {
		_ = b.ln.Close()
	})
	return b
}

// Dial connects clients to the in-memory listener.
func (b *Backend) Dial(addr string) (net.Conn, error) {
	return b.ln.Dial()
}

// AddAccount registers credentials. userJSON is returned verbatim as the
// "user" field of a successful login.
func (b *Backend) AddAccount(email, password, userJSON string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = account{password: password, user: json.RawMessage(userJSON)}
}

// SetOrganizations sets the raw my_organizations array returned for token.
func (b *Backend) SetOrganizations(token, membershipsJSON string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orgs[token] = membershipsJSON
}

// SetOrganizationsStatus forces the status code of the listing endpoint.
func (b *Backend) SetOrganizationsStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orgsStatus = status
}

// SetLogoutStatus forces the status code of the logout endpoint.
func (b *Backend) SetLogoutStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutStatus = status
}

// Calls returns how many times path (e.g. "/api/logout") was hit.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// LastHeader returns a header of the last request to path.
func (b *Backend) LastHeader(path, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.headers[path][name]
}

// LoggedOut returns the tokens revoked so far.
func (b *Backend) LoggedOut() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.loggedOut...)
}

func (b *Backend) record(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	b.calls[path]++
	b.headers[path] = map[string]string{
		"Authorization": string(ctx.Request.Header.Peek("Authorization")),
		"X-Request-ID":  string(ctx.Request.Header.Peek("X-Request-ID")),
		"Content-Type":  string(ctx.Request.Header.ContentType()),
	}
}

func (b *Backend) health(ctx *fasthttp.RequestCtx) {
	b.mu.Lock()
	b.record(ctx)
	b.mu.Unlock()
	ctx.SetStatusCode(fasthttp.StatusOK)
}

func (b *Backend) login(ctx *fasthttp.RequestCtx) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(ctx)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, `{"success":false,"error":"malformed request"}`)
		return
	}
	acc, ok := b.accounts[req.Email]
	if !ok || acc.password != req.Password {
		writeJSON(ctx, fasthttp.StatusUnauthorized, `{"success":false,"error":"Invalid email or password"}`)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, `{"success":true,"user":`+string(acc.user)+`}`)
}

func (b *Backend) organizations(ctx *fasthttp.RequestCtx) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(ctx)

	if b.orgsStatus != 0 {
		writeJSON(ctx, b.orgsStatus, `{"error":"forced"}`)
		return
	}
	orgs, ok := b.orgs[bearer(ctx)]
	if !ok {
		writeJSON(ctx, fasthttp.StatusUnauthorized, `{"error":"unauthorized"}`)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, `{"my_organizations":`+orgs+`}`)
}

func (b *Backend) logout(ctx *fasthttp.RequestCtx) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(ctx)

	if b.logoutStatus != 0 {
		writeJSON(ctx, b.logoutStatus, `{"error":"forced"}`)
		return
	}
	b.loggedOut = append(b.loggedOut, bearer(ctx))
	writeJSON(ctx, fasthttp.StatusOK, `{"success":true}`)
}

func bearer(ctx *fasthttp.RequestCtx) string {
	return strings.TrimPrefix(string(ctx.Request.Header.Peek("Authorization")), "Bearer ")
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(body)
}
