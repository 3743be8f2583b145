package tests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/database"
	testutil "github.com/trezcool/shule/tests"
)

type app struct {
	svc    *testutil.Services
	server *Server
}

func setup(t *testing.T) *app {
	t.Helper()

	conf := testutil.NewConfig()
	svc := testutil.NewServices(database.NewMemoryRepositories(), conf)
	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testutil.NewLogger(),
		Validate:       svc.Validate,
		Pinger:         svc.Repos.Pinger,
		AuthSvc:        svc.Auth,
		UserSvc:        svc.Users,
		AttendanceSvc:  svc.Attendance,
		AssignmentSvc:  svc.Assignment,
		StudentSvc:     svc.Student,
		DisableReqLogs: true,
	})
	return &app{svc: svc, server: server}
}

func (a *app) client(t *testing.T) *testutil.Client {
	return testutil.NewClient(t, a.server)
}

// loginAs creates a user with role and returns a client logged in as that user.
func (a *app) loginAs(t *testing.T, uname string, role user.Role) (*testutil.Client, user.User) {
	t.Helper()
	usr := testutil.CreateUser(t, a.svc.Repos.Users, uname, role, true)
	c := a.client(t)
	c.Login(uname, testutil.Password)
	return c, usr
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	wantCode     int
	wantLocation string
	wantBody     []string
}

func (tt httpTest) do(c *testutil.Client) *httptest.ResponseRecorder {
	if tt.method == http.MethodPost {
		return c.PostForm(tt.path, tt.form)
	}
	return c.Get(tt.path)
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantLocation != "" {
		assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"), "location")
	}
	for _, want := range tt.wantBody {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("body does not contain %q; body %s", want, rec.Body.String())
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
