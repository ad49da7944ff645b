package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/brioso-market/internal/media"
	"github.com/flicky/brioso-market/internal/metrics"
	"github.com/flicky/brioso-market/internal/model"
	"github.com/flicky/brioso-market/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SalePublisher announces committed transactions to whoever notifies sellers.
type SalePublisher interface {
	PublishSale(ctx context.Context, msg model.SaleMessage) error
}

// Marketplace holds the shared dependencies. Each client session gets its
// own Storefront from Open.
type Marketplace struct {
	users        repository.UserRepository
	products     repository.ProductRepository
	carts        repository.CartRepository
	transactions repository.TransactionRepository
	sessions     repository.SessionRepository

	images     media.Store
	publisher  SalePublisher
	metrics    *metrics.Metrics
	log        *slog.Logger
	bcryptCost int
}

// NewMarketplace accepts nil for images, publisher, metrics and log. A zero
// bcryptCost means bcrypt.DefaultCost.
func NewMarketplace(
	repos repository.Repositories,
	images media.Store,
	publisher SalePublisher,
	m *metrics.Metrics,
	log *slog.Logger,
	bcryptCost int,
) *Marketplace {
	if images == nil {
		images = media.Inline{}
	}
	if log == nil {
		log = slog.Default()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Marketplace{
		users:        repos.Users,
		products:     repos.Products,
		carts:        repos.Carts,
		transactions: repos.Transactions,
		sessions:     repos.Sessions,
		images:       images,
		publisher:    publisher,
		metrics:      m,
		log:          log,
		bcryptCost:   bcryptCost,
	}
}

// Open restores the session held in slot sessionID and loads every view.
// The empty id is the single default slot. The slot only names the user;
// the current record is read from the users collection, and a slot whose
// user no longer exists is cleared.
func (m *Marketplace) Open(ctx context.Context, sessionID string) (*Storefront, error) {
	s := &Storefront{m: m, sessionID: sessionID}
	held, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if held != nil {
		user, err := m.users.GetByID(ctx, held.ID)
		if err != nil {
			return nil, fmt.Errorf("load session user: %w", err)
		}
		if user == nil {
			m.log.Warn("session user is gone, clearing slot", "session_id", sessionID, "user_id", held.ID)
			if err := m.sessions.Set(ctx, sessionID, nil); err != nil {
				return nil, fmt.Errorf("clear session: %w", err)
			}
		}
		s.user = user
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// CatalogOptions are the suggestion lists offered by product and checkout forms.
type CatalogOptions struct {
	Categories     []string
	GrindTypes     []string
	PaymentMethods []model.PaymentMethod
}

func (m *Marketplace) CatalogOptions() CatalogOptions {
	return CatalogOptions{
		Categories:     model.Categories,
		GrindTypes:     model.GrindTypes,
		PaymentMethods: model.PaymentMethods,
	}
}

func (m *Marketplace) hashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// passwordMatches accepts bcrypt hashes and, for records written before
// hashing was introduced, the plaintext value.
func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}
