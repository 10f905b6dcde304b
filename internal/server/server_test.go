package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blogdeck/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv, err := New(Config{
		Port:      0,
		DBPath:    ":memory:",
		JWTSecret: "test-secret-at-least-16-chars!!",
		AuthMode:  "mock",
	}, logger)
	require.NoError(t, err)
	return srv
}

// apiClient drives the router like a browser would, carrying the session
// cookie between requests.
type apiClient struct {
	t       *testing.T
	srv     *Server
	cookies []*http.Cookie
}

func (c *apiClient) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rr, req)

	// Adopt any cookies the response set, dropping cleared ones.
	for _, set := range rr.Result().Cookies() {
		kept := c.cookies[:0]
		for _, existing := range c.cookies {
			if existing.Name != set.Name {
				kept = append(kept, existing)
			}
		}
		c.cookies = kept
		if set.MaxAge >= 0 && set.Value != "" {
			c.cookies = append(c.cookies, set)
		}
	}

	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

func TestAPIRequiresAuthentication(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, srv: srv}

	for _, path := range []string{"/api/me", "/api/organizations", "/api/blogs", "/api/session"} {
		rr := c.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "GET %s without a session", path)
	}
}

func TestFullSessionFlow(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, srv: srv}

	// Signup issues the session cookie and derives the name from the email.
	rr := c.do(http.MethodPost, "/api/auth/signup", `{"email":"a@b.com","password":"x"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	signupResp := decode[map[string]model.User](t, rr)
	assert.Equal(t, "a", signupResp["user"].Name)
	require.NotEmpty(t, c.cookies, "signup should set the session cookie")

	rr = c.do(http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[model.User](t, rr)
	assert.Equal(t, "a@b.com", me.Email)

	// Creating an organization selects it and derives its slug.
	rr = c.do(http.MethodPost, "/api/organizations", `{"name":"My Org","description":"d"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	org := decode[model.Organization](t, rr)
	assert.Equal(t, "my-org", org.Slug)
	assert.Empty(t, org.Blogs)

	rr = c.do(http.MethodGet, "/api/organizations/current", "")
	require.Equal(t, http.StatusOK, rr.Code)
	current := decode[model.Organization](t, rr)
	assert.Equal(t, org.ID, current.ID)

	// Blog lifecycle against the selected organization.
	rr = c.do(http.MethodPost, "/api/blogs", `{"title":"T","content":"C"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	blog := decode[model.Blog](t, rr)
	assert.Equal(t, org.ID, blog.OrganizationID)

	rr = c.do(http.MethodPut, "/api/blogs/"+blog.ID, `{"title":"T2","content":"C2"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[model.Blog](t, rr)
	assert.Equal(t, "T2", updated.Title)
	assert.True(t, updated.CreatedAt.Equal(blog.CreatedAt), "update must not move CreatedAt")

	rr = c.do(http.MethodDelete, "/api/blogs/"+blog.ID, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = c.do(http.MethodGet, "/api/blogs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	blogs := decode[[]model.Blog](t, rr)
	assert.Empty(t, blogs)

	// Logout clears the session; the store reports no user afterwards.
	rr = c.do(http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Nil(t, srv.Store().User())
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, srv: srv}

	rr := c.do(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"x"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	// Validation error: empty organization name.
	rr = c.do(http.MethodPost, "/api/organizations", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// No selection yet: blog creation conflicts.
	rr = c.do(http.MethodPost, "/api/blogs", `{"title":"T","content":"C"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Unknown organization id: not found.
	rr = c.do(http.MethodPut, "/api/organizations/current", `{"id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// No current organization selected: 404 on the current endpoint.
	rr = c.do(http.MethodGet, "/api/organizations/current", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Malformed body: validation error.
	rr = c.do(http.MethodPost, "/api/organizations", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown blog id after selecting an organization: not found.
	rr = c.do(http.MethodPost, "/api/organizations", `{"name":"Org"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = c.do(http.MethodDelete, "/api/blogs/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionSnapshotEndpoint(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, srv: srv}

	rr := c.do(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"x"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = c.do(http.MethodPost, "/api/organizations", `{"name":"Org"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = c.do(http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var snap struct {
		User                *model.User          `json:"user"`
		Organizations       []model.Organization `json:"organizations"`
		CurrentOrganization *model.Organization  `json:"currentOrganization"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))

	require.NotNil(t, snap.User)
	require.Len(t, snap.Organizations, 1)
	require.NotNil(t, snap.CurrentOrganization)
	assert.Equal(t, snap.Organizations[0].ID, snap.CurrentOrganization.ID)
}
