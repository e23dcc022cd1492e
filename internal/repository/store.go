package repository

import "context"

// Store bundles the repositories of one storage backend.
type Store interface {
	Users() UserRepository
	Transactions() TransactionRepository
	Orders() OrderRepository
	History() HistoryRepository
	Ping(ctx context.Context) error
	Name() string
	Close() error
}
