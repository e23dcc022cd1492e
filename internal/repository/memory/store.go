package memory

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository"
)

// snapshot is the on-disk layout of the store.
type snapshot struct {
	Users        []snapshotUser             `json:"users"`
	Transactions []models.CreditTransaction `json:"creditTransactions"`
	Orders       []models.ChargeOrder       `json:"chargeOrders"`
	History      []models.HistoryItem       `json:"history"`
	NextUserID   int64                      `json:"nextUserId"`
	NextTxID     int64                      `json:"nextTransactionId"`
}

// snapshotUser keeps the password hash that User hides from API responses.
type snapshotUser struct {
	models.User
	PasswordHash string `json:"passwordHash"`
}

// Store keeps every table in process memory behind a single mutex.
type Store struct {
	mu           sync.RWMutex
	users        map[int64]*models.User
	transactions []models.CreditTransaction
	orders       map[string]*models.ChargeOrder
	history      map[string]*models.HistoryItem
	nextUserID   int64
	nextTxID     int64
	now          func() time.Time

	path  string
	dirty bool

	userRepo    *UserRepository
	txRepo      *TransactionRepository
	orderRepo   *OrderRepository
	historyRepo *HistoryRepository
}

func NewStore() *Store {
	s := &Store{
		users:      make(map[int64]*models.User),
		orders:     make(map[string]*models.ChargeOrder),
		history:    make(map[string]*models.HistoryItem),
		nextUserID: 1,
		nextTxID:   1,
		now:        time.Now,
	}
	s.userRepo = &UserRepository{s: s}
	s.txRepo = &TransactionRepository{s: s}
	s.orderRepo = &OrderRepository{s: s}
	s.historyRepo = &HistoryRepository{s: s}
	return s
}

// Open creates a store backed by the snapshot file at path. A missing file
// yields an empty store; the file is written by Flush.
func Open(path string) (*Store, error) {
	s := NewStore()
	s.path = path
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		slog.Info("snapshot not found, starting empty", "method", "Open", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := s.load(data); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	slog.Info("snapshot loaded", "method", "Open", "path", path, "users", len(s.users), "transactions", len(s.transactions))
	return s, nil
}

func (s *Store) load(data []byte) error {
	var raw snapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, u := range raw.Users {
		user := u.User
		user.PasswordHash = u.PasswordHash
		s.users[user.ID] = &user
		if user.ID >= s.nextUserID {
			s.nextUserID = user.ID + 1
		}
	}
	s.transactions = append(s.transactions, raw.Transactions...)
	for _, tx := range raw.Transactions {
		if tx.ID >= s.nextTxID {
			s.nextTxID = tx.ID + 1
		}
	}
	for i := range raw.Orders {
		order := raw.Orders[i]
		s.orders[order.ID] = &order
	}
	for i := range raw.History {
		item := raw.History[i]
		s.history[item.ID] = &item
	}
	if raw.NextUserID > s.nextUserID {
		s.nextUserID = raw.NextUserID
	}
	if raw.NextTxID > s.nextTxID {
		s.nextTxID = raw.NextTxID
	}
	return nil
}

// Flush writes the snapshot if anything changed since the last flush.
func (s *Store) Flush() error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	data, err := s.marshal()
	if err == nil {
		s.dirty = false
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

func (s *Store) marshal() ([]byte, error) {
	var out snapshot
	for _, u := range s.users {
		out.Users = append(out.Users, snapshotUser{User: *u, PasswordHash: u.PasswordHash})
	}
	out.Transactions = s.transactions
	for _, o := range s.orders {
		out.Orders = append(out.Orders, *o)
	}
	for _, h := range s.history {
		out.History = append(out.History, *h)
	}
	out.NextUserID = s.nextUserID
	out.NextTxID = s.nextTxID
	return json.MarshalIndent(out, "", "  ")
}

// Run flushes the snapshot every interval until ctx is done, then flushes once more.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.path == "" || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Flush(); err != nil {
				slog.Error("final snapshot flush failed", "method", "Run", "error", err)
			}
			return
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				slog.Error("snapshot flush failed", "method", "Run", "error", err)
			}
		}
	}
}

func (s *Store) Users() repository.UserRepository               { return s.userRepo }
func (s *Store) Transactions() repository.TransactionRepository { return s.txRepo }
func (s *Store) Orders() repository.OrderRepository             { return s.orderRepo }
func (s *Store) History() repository.HistoryRepository          { return s.historyRepo }
func (s *Store) Name() string                                   { return "memory" }

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return s.Flush()
}
