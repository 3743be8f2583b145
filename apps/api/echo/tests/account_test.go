package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func Test_home(t *testing.T) {
	a := setup(t)
	rec := a.client(t).Get("/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func Test_login(t *testing.T) {
	a := setup(t)
	testutil.CreateUser(t, a.svc.Repos.Users, "teacher1", user.RoleTeacher, true)
	testutil.CreateUser(t, a.svc.Repos.Users, "gone", user.RoleTeacher, false)

	form := func(uname, pwd string) url.Values {
		return url.Values{"username": {uname}, "password": {pwd}}
	}
	invalid := []string{"Invalid username or password."}

	tests := []httpTest{
		{name: "Login page", path: "/login", wantCode: http.StatusOK, wantBody: []string{`name="username"`, `name="password"`}},
		{
			name: "Empty form", method: http.MethodPost, path: "/login", form: form("", ""),
			wantCode: http.StatusOK, wantBody: invalid,
		},
		{
			name: "Unknown user", method: http.MethodPost, path: "/login", form: form("nobody", testutil.Password),
			wantCode: http.StatusOK, wantBody: invalid,
		},
		{
			name: "Wrong password", method: http.MethodPost, path: "/login", form: form("teacher1", "wrong-pwd1"),
			wantCode: http.StatusOK, wantBody: append(invalid, `value="teacher1"`),
		},
		{
			name: "Inactive account", method: http.MethodPost, path: "/login", form: form("gone", testutil.Password),
			wantCode: http.StatusOK, wantBody: invalid,
		},
		{
			name: "Success", method: http.MethodPost, path: "/login", form: form("teacher1", testutil.Password),
			wantCode: http.StatusSeeOther, wantLocation: "/dashboard",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := a.client(t)
			rec := tt.do(c)
			checkResponse(t, tt, rec)

			_, hasSession := c.Cookie("shule_session")
			assert.Equal(t, tt.wantCode == http.StatusSeeOther, hasSession, "session cookie")
		})
	}
}

func Test_login_alreadyAuthenticated(t *testing.T) {
	a := setup(t)
	c, _ := a.loginAs(t, "teacher1", user.RoleTeacher)

	rec := c.Get("/login")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func Test_login_setsLastLogin(t *testing.T) {
	a := setup(t)
	usr := testutil.CreateUser(t, a.svc.Repos.Users, "teacher1", user.RoleTeacher, true)
	assert.False(t, usr.LastLogin.Valid)

	a.client(t).Login("teacher1", testutil.Password)

	usr, err := a.svc.Users.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.True(t, usr.LastLogin.Valid)
}

func Test_dashboard(t *testing.T) {
	a := setup(t)

	rec := a.client(t).Get("/dashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	tests := []struct {
		role user.Role
		want string
	}{
		{role: user.RoleTeacher, want: "/teacher/dashboard"},
		{role: user.RoleStudent, want: "/student/view"},
		{role: user.RoleLibrarian, want: "/librarian/dashboard"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			c, _ := a.loginAs(t, "user_"+string(tt.role), tt.role)
			rec := c.Get("/dashboard")
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func Test_logout(t *testing.T) {
	a := setup(t)
	c, _ := a.loginAs(t, "teacher1", user.RoleTeacher)
	cookie, ok := c.Cookie("shule_session")
	require.True(t, ok)

	rec := c.Get("/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	_, ok = c.Cookie("shule_session")
	assert.False(t, ok, "cookie cleared")

	// the old token is dead even though it has not expired
	req, _ := http.NewRequest(http.MethodGet, "/teacher/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	rec = a.client(t).Do(req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// logging out twice is harmless
	rec = c.Get("/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func Test_session_tamperedToken(t *testing.T) {
	a := setup(t)

	req, _ := http.NewRequest(http.MethodGet, "/teacher/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "shule_session", Value: "not.a.jwt"})
	c := a.client(t)
	rec := c.Do(req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func Test_session_deactivatedUser(t *testing.T) {
	a := setup(t)
	c, usr := a.loginAs(t, "teacher1", user.RoleTeacher)

	_, err := a.svc.Users.SetActive(context.Background(), usr, false)
	require.NoError(t, err)

	rec := c.Get("/teacher/dashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
