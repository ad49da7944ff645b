package repository

import (
	"context"
	"strings"
	"time"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/storage"
)

// UserPatch holds the fields to change; nil fields are left as they are.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Phone    *string
	Address  *string
	Avatar   *string
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id int64, patch UserPatch) (*model.User, error)
}

type kvUserRepo struct{ store *storage.Store }

func NewUserRepository(store *storage.Store) UserRepository {
	return &kvUserRepo{store: store}
}

// Create assigns ID and CreatedAt. Email uniqueness is the caller's job.
func (r *kvUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		id, err := nextID(tx, storage.SeqUsers, users, func(u model.User) int64 { return u.ID })
		if err != nil {
			return err
		}
		user.ID = id
		user.CreatedAt = time.Now().UTC()
		return tx.SetUsers(append(users, *user))
	})
	if err != nil {
		return wrap("create user", err)
	}
	return nil
}

func (r *kvUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.find(ctx, func(u model.User) bool { return u.ID == id })
}

func (r *kvUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	return r.find(ctx, func(u model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *kvUserRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.store.View(ctx, func(tx *storage.Tx) error {
		var err error
		users, err = tx.Users()
		return err
	})
	if err != nil {
		return nil, wrap("list users", err)
	}
	return users, nil
}

func (r *kvUserRepo) find(ctx context.Context, match func(model.User) bool) (*model.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if match(users[i]) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// Update returns (nil, nil) when no user has the id.
func (r *kvUserRepo) Update(ctx context.Context, id int64, patch UserPatch) (*model.User, error) {
	var updated *model.User
	err := r.store.Update(ctx, func(tx *storage.Tx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		for i := range users {
			if users[i].ID != id {
				continue
			}
			patch.apply(&users[i])
			u := users[i]
			updated = &u
			return tx.SetUsers(users)
		}
		return nil
	})
	if err != nil {
		return nil, wrap("update user", err)
	}
	return updated, nil
}

func (p UserPatch) apply(u *model.User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
}
