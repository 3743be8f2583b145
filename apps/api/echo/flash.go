package echoapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	flashCookieName = "shule_flash"
	flashContextKey = "flashes"

	flashSuccess = "success"
	flashError   = "error"
)

// flash is a one-time message shown on the next rendered page.
type flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func decodeFlashes(value string) []flash {
	data, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var flashes []flash
	if err = json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}

// pendingFlashes returns the flashes carried by the request cookie plus those added during this request.
func pendingFlashes(ctx echo.Context) []flash {
	if flashes, ok := ctx.Get(flashContextKey).([]flash); ok {
		return flashes
	}
	var flashes []flash
	if cookie, err := ctx.Cookie(flashCookieName); err == nil {
		flashes = decodeFlashes(cookie.Value)
	}
	ctx.Set(flashContextKey, flashes)
	return flashes
}

func addFlash(ctx echo.Context, level, msg string) {
	flashes := append(pendingFlashes(ctx), flash{Level: level, Message: msg})
	ctx.Set(flashContextKey, flashes)

	data, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    base64.URLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns the pending flashes and clears them.
func popFlashes(ctx echo.Context) []flash {
	flashes := pendingFlashes(ctx)
	ctx.Set(flashContextKey, []flash(nil))
	if len(flashes) > 0 {
		ctx.SetCookie(&http.Cookie{Name: flashCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
	return flashes
}
