package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/flicky/brioso-market/internal/model"
)

var ErrReadOnly = errors.New("write in read-only transaction")

// Store lays the marketplace collections out over a Backend:
//
//	<prefix>_users                       []User
//	<prefix>_products                    []Product
//	<prefix>_transactions                []Transaction
//	<prefix>_cart_<userID>               []CartItem
//	<prefix>_current_user[_<sessionID>]  User
//	<prefix>_seq_<collection>            highest id ever issued
//
// All mutations go through Update, which holds a single writer lock and
// commits the staged keys in one backend commit.
type Store struct {
	backend    Backend
	prefix     string
	log        *slog.Logger
	sessionTTL time.Duration
	mu         sync.RWMutex
}

type Option func(*Store)

// WithSessionTTL makes session slots expire d after they were last written.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Store) { s.sessionTTL = d }
}

func New(backend Backend, prefix string, log *slog.Logger, opts ...Option) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{backend: backend, prefix: prefix, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collections with an id counter.
const (
	SeqUsers        = "users"
	SeqProducts     = "products"
	SeqTransactions = "transactions"
)

func (s *Store) UsersKey() string        { return s.prefix + "_users" }
func (s *Store) ProductsKey() string     { return s.prefix + "_products" }
func (s *Store) TransactionsKey() string { return s.prefix + "_transactions" }

func (s *Store) CartKey(userID int64) string {
	return s.prefix + "_cart_" + strconv.FormatInt(userID, 10)
}

func (s *Store) SeqKey(collection string) string {
	return s.prefix + "_seq_" + collection
}

// SessionKey returns the default slot for an empty sessionID.
func (s *Store) SessionKey(sessionID string) string {
	if sessionID == "" {
		return s.prefix + "_current_user"
	}
	return s.prefix + "_current_user_" + sessionID
}

// View runs fn against a consistent read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newTx(ctx, s, false))
}

// Update runs fn with exclusive access. Writes made through tx are only
// visible to tx until fn returns nil, then they are committed together.
// If fn returns an error nothing is written and the error is returned as is.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(ctx, s, true)
	if err := fn(tx); err != nil {
		return err
	}
	writes := tx.writes()
	if len(writes) == 0 {
		return nil
	}
	if err := s.backend.Commit(ctx, writes); err != nil {
		return fmt.Errorf("commit %d keys: %w", len(writes), err)
	}
	return nil
}

// Sweep removes expired keys from backends that do not drop them on their
// own. It is a no-op for the others.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	sw, ok := s.backend.(Sweeper)
	if !ok {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sw.Sweep(ctx)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.log.Error("sweep expired keys", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("swept expired keys", "count", n)
			}
		}
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

type staged struct {
	value  []byte
	delete bool
	ttl    time.Duration
}

// Tx is a read view over the store plus, for Update, a write staging area.
type Tx struct {
	ctx      context.Context
	store    *Store
	writable bool
	staged   map[string]staged
	order    []string
}

func newTx(ctx context.Context, s *Store, writable bool) *Tx {
	return &Tx{ctx: ctx, store: s, writable: writable, staged: make(map[string]staged)}
}

func (tx *Tx) get(key string) ([]byte, error) {
	if w, ok := tx.staged[key]; ok {
		if w.delete {
			return nil, nil
		}
		return w.value, nil
	}
	return tx.store.backend.Get(tx.ctx, key)
}

func (tx *Tx) stage(key string, w staged) error {
	if !tx.writable {
		return ErrReadOnly
	}
	if _, ok := tx.staged[key]; !ok {
		tx.order = append(tx.order, key)
	}
	tx.staged[key] = w
	return nil
}

func (tx *Tx) writes() []Write {
	out := make([]Write, 0, len(tx.order))
	for _, key := range tx.order {
		w := tx.staged[key]
		out = append(out, Write{Key: key, Value: w.value, Delete: w.delete, TTL: w.ttl})
	}
	return out
}

func (tx *Tx) Users() ([]model.User, error) {
	return readList[model.User](tx, tx.store.UsersKey())
}

func (tx *Tx) SetUsers(users []model.User) error {
	return writeList(tx, tx.store.UsersKey(), users)
}

func (tx *Tx) Products() ([]model.Product, error) {
	return readList[model.Product](tx, tx.store.ProductsKey())
}

func (tx *Tx) SetProducts(products []model.Product) error {
	return writeList(tx, tx.store.ProductsKey(), products)
}

func (tx *Tx) Transactions() ([]model.Transaction, error) {
	return readList[model.Transaction](tx, tx.store.TransactionsKey())
}

func (tx *Tx) SetTransactions(transactions []model.Transaction) error {
	return writeList(tx, tx.store.TransactionsKey(), transactions)
}

func (tx *Tx) Cart(userID int64) ([]model.CartItem, error) {
	return readList[model.CartItem](tx, tx.store.CartKey(userID))
}

func (tx *Tx) SetCart(userID int64, items []model.CartItem) error {
	return writeList(tx, tx.store.CartKey(userID), items)
}

// Session returns the user held in a session slot, or nil.
func (tx *Tx) Session(sessionID string) (*model.User, error) {
	key := tx.store.SessionKey(sessionID)
	raw, err := tx.get(key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var user *model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		tx.store.log.Warn("discard undecodable session", "key", key, "error", err)
		return nil, nil
	}
	return user, nil
}

// SetSession stores user in a session slot; nil clears the slot.
func (tx *Tx) SetSession(sessionID string, user *model.User) error {
	key := tx.store.SessionKey(sessionID)
	if user == nil {
		return tx.stage(key, staged{delete: true})
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return tx.stage(key, staged{value: raw, ttl: tx.store.sessionTTL})
}

// NextID issues the next id for collection. The counter never goes down, so
// the id of a deleted record is never issued again. floor is the highest id
// present in the collection; it covers data written before the counter.
func (tx *Tx) NextID(collection string, floor int64) (int64, error) {
	last, err := tx.RaiseSeq(collection, floor)
	if err != nil {
		return 0, err
	}
	next := last + 1
	if err := tx.stage(tx.store.SeqKey(collection), staged{value: []byte(strconv.FormatInt(next, 10))}); err != nil {
		return 0, err
	}
	return next, nil
}

// RaiseSeq lifts the counter of collection to at least floor and returns
// its value.
func (tx *Tx) RaiseSeq(collection string, floor int64) (int64, error) {
	key := tx.store.SeqKey(collection)
	raw, err := tx.get(key)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	var last int64
	if len(raw) > 0 {
		if last, err = strconv.ParseInt(string(raw), 10, 64); err != nil {
			tx.store.log.Warn("discard undecodable counter", "key", key, "error", err)
			last = 0
		}
	}
	if floor <= last {
		return last, nil
	}
	if err := tx.stage(key, staged{value: []byte(strconv.FormatInt(floor, 10))}); err != nil {
		return 0, err
	}
	return floor, nil
}

// readList never fails on bad data: a missing or undecodable value is an
// empty collection.
func readList[T any](tx *Tx, key string) ([]T, error) {
	raw, err := tx.get(key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	out := []T{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		tx.store.log.Warn("discard undecodable collection", "key", key, "error", err)
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func writeList[T any](tx *Tx, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return tx.stage(key, staged{value: raw})
}
