package repository

import (
	"context"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/storage"
)

// SessionRepository holds the signed-in user per session slot. The empty
// session id is the single shared slot.
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (*model.User, error)
	Set(ctx context.Context, sessionID string, user *model.User) error
}

type kvSessionRepo struct{ store *storage.Store }

func NewSessionRepository(store *storage.Store) SessionRepository {
	return &kvSessionRepo{store: store}
}

func (r *kvSessionRepo) Get(ctx context.Context, sessionID string) (*model.User, error) {
	var user *model.User
	err := r.store.View(ctx, func(tx *storage.Tx) error {
		var err error
		user, err = tx.Session(sessionID)
		return err
	})
	if err != nil {
		return nil, wrap("get session", err)
	}
	return user, nil
}

// Set with a nil user clears the slot.
func (r *kvSessionRepo) Set(ctx context.Context, sessionID string, user *model.User) error {
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		return tx.SetSession(sessionID, user)
	})
	return wrap("set session", err)
}
