package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/repository"
	"github.com/flicky/brioso-market/internal/sanitize"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// ProfileInput replaces the editable profile fields. An empty Avatar resets
// to the placeholder; an empty Password keeps the current one.
type ProfileInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Avatar   string
	Password string
}

func (s *Storefront) Login(ctx context.Context, email, password string) error {
	s.begin()
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		s.m.metrics.RecordAuth("login", false)
		return s.fail("login", ErrInvalidEmail)
	}

	user, err := s.m.users.GetByEmail(ctx, email)
	if err != nil {
		return s.fail("login", fmt.Errorf("get user: %w", err))
	}
	if user == nil || !passwordMatches(user.Password, password) {
		s.m.metrics.RecordAuth("login", false)
		return s.fail("login", ErrInvalidCredentials)
	}

	if err := s.signIn(ctx, user); err != nil {
		return s.fail("login", err)
	}
	s.m.metrics.RecordAuth("login", true)
	s.m.log.Info("user signed in", "user_id", user.ID, "session_id", s.sessionID)
	return nil
}

// Register creates the account and signs it in.
func (s *Storefront) Register(ctx context.Context, in RegisterInput) error {
	s.begin()
	name := sanitize.Text(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := sanitize.Text(in.Phone)
	if name == "" || email == "" || in.Password == "" || phone == "" {
		s.m.metrics.RecordAuth("register", false)
		return s.fail("register", ErrMissingSignupField)
	}
	if !validEmail(email) {
		s.m.metrics.RecordAuth("register", false)
		return s.fail("register", ErrInvalidEmail)
	}
	if len(in.Password) < 6 {
		s.m.metrics.RecordAuth("register", false)
		return s.fail("register", ErrPasswordTooShort)
	}

	existing, err := s.m.users.GetByEmail(ctx, email)
	if err != nil {
		return s.fail("register", fmt.Errorf("check user: %w", err))
	}
	if existing != nil {
		s.m.metrics.RecordAuth("register", false)
		return s.fail("register", ErrUserAlreadyExists)
	}

	hashed, err := s.m.hashPassword(in.Password)
	if err != nil {
		return s.fail("register", err)
	}
	user := &model.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Phone:    phone,
		Address:  sanitize.Text(in.Address),
		Avatar:   model.DefaultAvatar,
	}
	if err := s.m.users.Create(ctx, user); err != nil {
		return s.fail("register", fmt.Errorf("create user: %w", err))
	}

	if err := s.signIn(ctx, user); err != nil {
		return s.fail("register", err)
	}
	s.m.metrics.RecordAuth("register", true)
	s.m.log.Info("user registered", "user_id", user.ID, "session_id", s.sessionID)
	return nil
}

func (s *Storefront) signIn(ctx context.Context, user *model.User) error {
	if err := s.m.sessions.Set(ctx, s.sessionID, user); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.user = user
	return s.Refresh(ctx)
}

// Logout clears the session slot and every per-user view.
func (s *Storefront) Logout(ctx context.Context) error {
	s.begin()
	if err := s.m.sessions.Set(ctx, s.sessionID, nil); err != nil {
		return s.fail("logout", fmt.Errorf("clear session: %w", err))
	}
	if s.user != nil {
		s.m.log.Info("user signed out", "user_id", s.user.ID, "session_id", s.sessionID)
	}
	s.user = nil
	s.cart, s.sales, s.purchases = nil, nil, nil
	if err := s.LoadProducts(ctx); err != nil {
		return s.fail("logout", err)
	}
	return nil
}

// UpdateUser saves the profile of the signed-in user and refreshes the
// session copy.
func (s *Storefront) UpdateUser(ctx context.Context, in ProfileInput) error {
	s.begin()
	if s.user == nil {
		return s.fail("update user", ErrNotAuthenticated)
	}
	name := sanitize.Text(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return s.fail("update user", ErrMissingProfileData)
	}
	if !validEmail(email) {
		return s.fail("update user", ErrInvalidEmail)
	}

	existing, err := s.m.users.GetByEmail(ctx, email)
	if err != nil {
		return s.fail("update user", fmt.Errorf("check email: %w", err))
	}
	if existing != nil && existing.ID != s.user.ID {
		return s.fail("update user", ErrEmailInUse)
	}

	avatar := strings.TrimSpace(in.Avatar)
	if avatar == "" {
		avatar = model.DefaultAvatar
	} else if avatar, err = s.m.images.Save(ctx, "avatars", avatar); err != nil {
		return s.fail("update user", fmt.Errorf("save avatar: %w", err))
	}

	phone := sanitize.Text(in.Phone)
	address := sanitize.Text(in.Address)
	patch := repository.UserPatch{Name: &name, Email: &email, Phone: &phone, Address: &address, Avatar: &avatar}
	if in.Password != "" {
		if len(in.Password) < 6 {
			return s.fail("update user", ErrPasswordTooShort)
		}
		hashed, err := s.m.hashPassword(in.Password)
		if err != nil {
			return s.fail("update user", err)
		}
		patch.Password = &hashed
	}

	updated, err := s.m.users.Update(ctx, s.user.ID, patch)
	if err != nil {
		return s.fail("update user", err)
	}
	if updated == nil {
		return s.fail("update user", ErrProfileNotUpdated)
	}
	if err := s.m.sessions.Set(ctx, s.sessionID, updated); err != nil {
		return s.fail("update user", fmt.Errorf("save session: %w", err))
	}
	s.user = updated
	// Seller name, phone and avatar appear in every joined view.
	if err := s.Refresh(ctx); err != nil {
		return s.fail("update user", err)
	}
	return nil
}
