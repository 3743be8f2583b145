package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/shule/core/auth"
)

type sessionRepository struct {
	db *DB
}

var _ auth.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(_ context.Context, sess auth.Session) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.sessions[sess.ID] = sess
	return nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (auth.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if sess, ok := repo.db.sessions[id]; ok {
		return sess, nil
	}
	return auth.Session{}, auth.ErrSessionNotFound
}

func (repo *sessionRepository) DeleteSession(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.sessions, id)
	return nil
}

func (repo *sessionRepository) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for id, sess := range repo.db.sessions {
		if sess.Expired(now) {
			delete(repo.db.sessions, id)
			n++
		}
	}
	return n, nil
}
