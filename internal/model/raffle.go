package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Raffle lifecycle states.
const (
    RaffleActive   = "ACTIVE"
    RaffleArchived = "ARCHIVED"
)

// Raffle is a single prize drawing with its own number space and price.
//
// Fields:
//  ID            – primary key identifier.
//  TenantID      – owning tenant.
//  Slug          – unique public identifier.
//  DigitWidth    – width of every ticket number ("05" has width 2).
//  TicketCount   – number of tickets generated at creation.
//  UnitPrice     – price of one ticket.
//  Status        – ACTIVE or ARCHIVED.
//  ClosesAt      – optional close time; reaching it archives the raffle.
//  WinningNumber – set once the tenant declares the result.
type Raffle struct {
    ID            uint64          `json:"id"`
    TenantID      uint64          `json:"tenant_id"`
    Slug          string          `json:"slug"`
    Name          string          `json:"name"`
    Description   string          `json:"description"`
    PrizeValue    decimal.Decimal `json:"prize_value"`
    DigitWidth    int             `json:"digit_width"`
    TicketCount   int             `json:"ticket_count"`
    UnitPrice     decimal.Decimal `json:"unit_price"`
    Status        string          `json:"status"`
    ClosesAt      *time.Time      `json:"closes_at,omitempty"`
    WinningNumber *string         `json:"winning_number,omitempty"`
    CreatedAt     time.Time       `json:"created_at"`
}

// Closed reports whether the raffle's close time has passed at now.
func (r Raffle) Closed(now time.Time) bool {
    return r.ClosesAt != nil && !now.Before(*r.ClosesAt)
}

// Active reports whether the raffle still accepts reservations at now.
func (r Raffle) Active(now time.Time) bool {
    return r.Status == RaffleActive && !r.Closed(now)
}
