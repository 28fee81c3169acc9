// Package inventory defines the ticket inventory contract shared by the
// MySQL repository and the in-memory store, together with the pure
// helpers that generate and look up ticket numbers.
package inventory

import (
    "context"
    "time"

    "github.com/iliyamo/raffle-reservation/internal/model"
)

// Store runs fn inside a single transaction.  If fn returns an error the
// transaction is rolled back and the error returned unchanged; otherwise
// it is committed.
type Store interface {
    Tx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside a Store transaction.
type Tx interface {
    RaffleTx
    TicketTx
    PurchaseTx
    TenantTx
}

// RaffleTx reads and writes raffle rows.
type RaffleTx interface {
    // LockRaffle loads the raffle and holds an exclusive lock on it until
    // the transaction ends.  Every ticket state change for a raffle is
    // made while holding this lock.
    LockRaffle(ctx context.Context, raffleID uint64) (model.Raffle, error)
    GetRaffle(ctx context.Context, raffleID uint64) (model.Raffle, error)
    GetRaffleBySlug(ctx context.Context, slug string) (model.Raffle, error)
    // ListRaffles returns the tenant's raffles, newest first.
    ListRaffles(ctx context.Context, tenantID uint64, activeOnly bool) ([]model.Raffle, error)
    CreateRaffle(ctx context.Context, r *model.Raffle) error
    SetRaffleStatus(ctx context.Context, raffleID uint64, status string) error
    SetWinningNumber(ctx context.Context, raffleID uint64, number string) error
}

// TicketTx reads and writes ticket rows.  Mutating methods are
// conditional: they only touch tickets in the state they expect and report
// how many rows changed.
type TicketTx interface {
    CreateTickets(ctx context.Context, raffleID uint64, numbers []string) error
    // ExpireHolds makes every held ticket whose expiry is at or before now
    // available again and returns the reclaimed numbers.
    ExpireHolds(ctx context.Context, raffleID uint64, now time.Time) ([]string, error)
    // GetTickets returns the tickets that exist among numbers.
    GetTickets(ctx context.Context, raffleID uint64, numbers []string) ([]model.Ticket, error)
    // ListTickets returns every ticket of the raffle ordered by number.
    ListTickets(ctx context.Context, raffleID uint64) ([]model.Ticket, error)
    // HoldTickets moves the AVAILABLE tickets among numbers to HELD.
    HoldTickets(ctx context.Context, raffleID uint64, numbers []string, buyerID, purchaseID uint64, expiresAt time.Time) (int64, error)
    // ReleaseTickets moves the tickets held by purchaseID back to AVAILABLE.
    ReleaseTickets(ctx context.Context, raffleID, purchaseID uint64) ([]string, error)
    // SellTickets moves tickets among numbers that are AVAILABLE, or HELD by
    // purchaseID, to SOLD.
    SellTickets(ctx context.Context, raffleID uint64, numbers []string, buyerID, purchaseID uint64) (int64, error)
}

// PurchaseTx reads and writes buyers and purchases.
type PurchaseTx interface {
    // UpsertBuyer inserts or updates the buyer by national ID and sets b.ID.
    UpsertBuyer(ctx context.Context, b *model.Buyer) error
    GetBuyer(ctx context.Context, buyerID uint64) (model.Buyer, error)
    // CreatePurchase inserts the purchase with its numbers and sets p.ID.
    CreatePurchase(ctx context.Context, p *model.Purchase) error
    SetPurchaseReference(ctx context.Context, purchaseID uint64, ref string) error
    GetPurchase(ctx context.Context, purchaseID uint64) (model.Purchase, error)
    GetPurchaseByReference(ctx context.Context, ref string) (model.Purchase, error)
    MarkPurchasePaid(ctx context.Context, purchaseID uint64, paidAt time.Time) error
    DeletePurchase(ctx context.Context, purchaseID uint64) error
    ListPurchases(ctx context.Context, raffleID uint64) ([]model.Purchase, error)
}

// TenantTx reads and writes tenants.
type TenantTx interface {
    GetTenant(ctx context.Context, tenantID uint64) (model.Tenant, error)
    GetTenantBySlug(ctx context.Context, slug string) (model.Tenant, error)
    CreateTenant(ctx context.Context, t *model.Tenant) error
    UpdatePaymentSettings(ctx context.Context, tenantID uint64, publicKey, privateKey, integritySecret string) error
}

// Accounts manages tenant administrator accounts and their refresh tokens.
type Accounts interface {
    CreateUser(ctx context.Context, tenantID uint64, email, password string, cost int) (uint64, error)
    GetUserByEmail(ctx context.Context, email string) (model.TenantUser, error)
    GetUserByID(ctx context.Context, userID uint64) (model.TenantUser, error)
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}
