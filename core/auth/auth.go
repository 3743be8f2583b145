// Package auth authenticates users and manages their server-side sessions.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core/user"
)

var (
	// ErrAuthenticationFailed is returned for unknown users, wrong passwords and inactive accounts alike.
	ErrAuthenticationFailed = errors.New("invalid username or password")
	ErrSessionInvalid       = errors.New("session is invalid or has expired")
	ErrSessionNotFound      = errors.New("session not found")
)

// dummyHash is compared against when the user does not exist so that both paths cost a bcrypt round.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("shule-dummy-password"), bcrypt.DefaultCost)

var nowFunc = time.Now // mockable

type Session struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"` // UTC
	ExpiresAt time.Time `db:"expires_at"` // UTC
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session) error
		// GetSession returns ErrSessionNotFound for unknown ids.
		GetSession(ctx context.Context, id string) (Session, error)
		// DeleteSession is a no-op for unknown ids.
		DeleteSession(ctx context.Context, id string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	}

	Service struct {
		repo  Repository
		users *user.Service
		ttl   time.Duration
	}
)

func NewService(repo Repository, users *user.Service, ttl time.Duration) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
	).CheckAndPanic()
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{repo: repo, users: users, ttl: ttl}
}

// Login verifies the credentials, opens a session bound to the user and records the login time.
func (svc *Service) Login(ctx context.Context, username, pwd string) (Session, user.User, error) {
	usr, err := svc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pwd))
			return Session{}, user.User{}, ErrAuthenticationFailed
		}
		return Session{}, user.User{}, errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return Session{}, user.User{}, ErrAuthenticationFailed
	}
	if !usr.IsActive {
		return Session{}, user.User{}, ErrAuthenticationFailed
	}

	now := nowFunc().UTC()
	if _, err = svc.repo.DeleteExpiredSessions(ctx, now); err != nil {
		return Session{}, user.User{}, errors.Wrap(err, "pruning expired sessions")
	}
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    usr.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(svc.ttl),
	}
	if err = svc.repo.CreateSession(ctx, sess); err != nil {
		return Session{}, user.User{}, errors.Wrap(err, "creating session")
	}
	if usr, err = svc.users.SetLastLogin(ctx, usr, now); err != nil {
		return Session{}, user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return sess, usr, nil
}

// Logout invalidates the session. Unknown or empty ids are ignored.
func (svc *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return errors.Wrap(svc.repo.DeleteSession(ctx, sessionID), "deleting session")
}

// Resolve returns the active user bound to the session.
func (svc *Service) Resolve(ctx context.Context, sessionID string) (user.User, error) {
	if sessionID == "" {
		return user.User{}, ErrSessionInvalid
	}
	sess, err := svc.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Cause(err) == ErrSessionNotFound {
			return user.User{}, ErrSessionInvalid
		}
		return user.User{}, errors.Wrap(err, "finding session")
	}
	if sess.Expired(nowFunc().UTC()) {
		if err = svc.repo.DeleteSession(ctx, sess.ID); err != nil {
			return user.User{}, errors.Wrap(err, "deleting expired session")
		}
		return user.User{}, ErrSessionInvalid
	}

	usr, err := svc.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrSessionInvalid
		}
		return user.User{}, errors.Wrap(err, "finding session user")
	}
	if !usr.IsActive {
		return user.User{}, ErrSessionInvalid
	}
	return usr, nil
}

// SessionTTL is how long a new session stays valid.
func (svc *Service) SessionTTL() time.Duration {
	return svc.ttl
}
