package echoapi

import (
	"html/template"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
	appfs "github.com/trezcool/shule/fs"
)

const (
	templatesDir   = "templates"
	layoutTemplate = "layout.html"

	csrfField         = "csrf"
	csrfContextKey    = "csrf"
	appNameContextKey = "appName"
)

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(core.DateLayout)
	},
	"roleName": func(r user.Role) string {
		return r.DisplayName()
	},
}

// renderer implements echo.Renderer. Every page is parsed together with the layout.
type renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil) // interface compliance check

func newRenderer() *renderer {
	pages, err := fs.Glob(appfs.FS, path.Join(templatesDir, "*.html"))
	if err != nil {
		panic(err)
	}

	r := &renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		name := path.Base(page)
		if name == layoutTemplate {
			continue
		}
		r.templates[name] = template.Must(
			template.New(name).Funcs(templateFuncs).ParseFS(appfs.FS, path.Join(templatesDir, layoutTemplate), page),
		)
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

type pageData struct {
	AppName string
	Title   string
	User    *user.User
	Flashes []flash
	CSRF    string
	Page    interface{}
}

func render(ctx echo.Context, code int, name, title string, page interface{}) error {
	data := pageData{
		Title:   title,
		Flashes: popFlashes(ctx),
		Page:    page,
	}
	data.AppName, _ = ctx.Get(appNameContextKey).(string)
	if usr, ok := contextUser(ctx); ok {
		data.User = &usr
	}
	data.CSRF, _ = ctx.Get(csrfContextKey).(string)
	return ctx.Render(code, name, data)
}

// page payloads
type (
	errorPage struct {
		Message string
	}

	loginPage struct {
		Username string
		Error    string
	}

	rosterPage struct {
		Students []user.Student
	}
)
