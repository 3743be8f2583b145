package echoapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/user"
)

const (
	sessionCookieName = "shule_session"
	contextUserKey    = "user"
	contextSessionKey = "sessionID"
)

var errInvalidToken = errors.New("invalid session token")

// sessionClaims is the payload of the session cookie. ID (jti) holds the server side session id.
type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

func (s *Server) signingKey() []byte {
	return []byte(s.deps.Conf.SecretKey)
}

func (s *Server) generateToken(sess auth.Session, usr user.User) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    s.deps.Conf.AppName,
			Subject:   usr.Username,
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Role: string(usr.Role),
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey())
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parseToken verifies the token signature, issuer and expiry, and returns its session id.
func (s *Server) parseToken(token string) (string, error) {
	claims := new(sessionClaims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.signingKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.deps.Conf.AppName),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", errors.Wrap(errInvalidToken, err.Error())
	}
	if claims.ID == "" {
		return "", errInvalidToken
	}
	return claims.ID, nil
}

func (s *Server) setSessionCookie(ctx echo.Context, token string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.deps.Conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.Conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func contextUser(ctx echo.Context) (user.User, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	return usr, ok
}

func contextSession(ctx echo.Context) string {
	id, _ := ctx.Get(contextSessionKey).(string)
	return id
}
