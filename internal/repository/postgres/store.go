package postgres

import (
	"context"
	"database/sql"

	"github.com/nanobananary/studio-api/internal/repository"
)

type Store struct {
	db           *sql.DB
	users        *PostgresUserRepository
	transactions *PostgresTransactionRepository
	orders       *PostgresOrderRepository
	history      *PostgresHistoryRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		users:        NewPostgresUserRepository(db),
		transactions: NewPostgresTransactionRepository(db),
		orders:       NewPostgresOrderRepository(db),
		history:      NewPostgresHistoryRepository(db),
	}
}

func (s *Store) Users() repository.UserRepository               { return s.users }
func (s *Store) Transactions() repository.TransactionRepository { return s.transactions }
func (s *Store) Orders() repository.OrderRepository             { return s.orders }
func (s *Store) History() repository.HistoryRepository          { return s.history }
func (s *Store) Name() string                                   { return "postgres" }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
