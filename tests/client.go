package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// Client drives an http.Handler like a browser would: cookies set by responses are sent back.
type Client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func NewClient(t *testing.T, handler http.Handler) *Client {
	return &Client{t: t, handler: handler, cookies: make(map[string]*http.Cookie)}
}

func (c *Client) Do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, cookie := range c.cookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func (c *Client) Get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *Client) PostForm(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

// Follow requests the location a redirect response points to.
func (c *Client) Follow(rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	c.t.Helper()
	loc := rec.Header().Get("Location")
	if loc == "" {
		c.t.Fatalf("Follow(): response %d has no Location", rec.Code)
	}
	return c.Get(loc)
}

// Login posts the login form and fails the test unless a session cookie was issued.
func (c *Client) Login(uname, pwd string) {
	c.t.Helper()
	rec := c.PostForm("/login", url.Values{"username": {uname}, "password": {pwd}})
	if rec.Code != http.StatusSeeOther {
		c.t.Fatalf("Login(%q) failed: code = %d; body %s", uname, rec.Code, rec.Body.String())
	}
}

func (c *Client) Cookie(name string) (*http.Cookie, bool) {
	cookie, ok := c.cookies[name]
	return cookie, ok
}
