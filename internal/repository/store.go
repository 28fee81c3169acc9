package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/raffle-reservation/internal/inventory"
)

// Store implements inventory.Store and inventory.Accounts on MySQL.
type Store struct {
    db *sql.DB
    *UserRepo
    *TokenRepo
}

// NewStore returns a Store bound to db.
func NewStore(db *sql.DB) *Store {
    return &Store{db: db, UserRepo: NewUserRepo(db), TokenRepo: NewTokenRepo(db)}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// storeTx binds every table repo to one *sql.Tx.
type storeTx struct {
    RaffleRepo
    TicketRepo
    PurchaseRepo
    TenantRepo
}

// Tx begins a transaction, runs fn and commits if fn succeeded.  The
// transaction is rolled back on any error or panic.
func (s *Store) Tx(ctx context.Context, fn func(tx inventory.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&storeTx{
        RaffleRepo:   RaffleRepo{q: tx},
        TicketRepo:   TicketRepo{q: tx},
        PurchaseRepo: PurchaseRepo{q: tx},
        TenantRepo:   TenantRepo{q: tx},
    }); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit tx: %w", err)
    }
    committed = true
    return nil
}

var (
    _ inventory.Store    = (*Store)(nil)
    _ inventory.Accounts = (*Store)(nil)
    _ inventory.Tx       = (*storeTx)(nil)
)
