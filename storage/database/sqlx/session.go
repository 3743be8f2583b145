package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/auth"
)

type sessionRepository struct {
	db core.DB
}

var _ auth.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db core.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo sessionRepository) CreateSession(ctx context.Context, sess auth.Session) error {
	q := rebind("INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)")
	_, err := repo.db.ExecContext(ctx, q, sess.ID, sess.UserID, sess.CreatedAt.UTC(), sess.ExpiresAt.UTC())
	return errors.Wrap(err, "inserting session")
}

func (repo sessionRepository) GetSession(ctx context.Context, id string) (auth.Session, error) {
	var sess auth.Session
	q := rebind("SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?")
	if err := repo.db.GetContext(ctx, &sess, q, id); err != nil {
		return auth.Session{}, trapNoRowsErr(err, auth.ErrSessionNotFound, "finding session")
	}
	return sess, nil
}

func (repo sessionRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, rebind("DELETE FROM sessions WHERE id = ?"), id)
	return errors.Wrap(err, "deleting session")
}

func (repo sessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := repo.db.ExecContext(ctx, rebind("DELETE FROM sessions WHERE expires_at <= ?"), now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired sessions")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
