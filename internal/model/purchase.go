package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Purchase states.
const (
    PurchasePending = "PENDING"
    PurchasePaid    = "PAID"
)

// Purchase records one checkout attempt: the numbers requested together,
// the buyer, the total price and the payment reference used to correlate
// gateway events.
//
// Fields:
//  ID         – primary key identifier.
//  TenantID   – tenant selling the raffle.
//  RaffleID   – raffle the numbers belong to.
//  BuyerID    – buyer who requested the numbers.
//  Numbers    – requested ticket numbers (purchase_tickets rows).
//  Total      – unit price times the number count.
//  Status     – PENDING or PAID.
//  PaymentRef – unique gateway reference ("purchase_<id>").
//  PaidAt     – when an approved settlement was applied.
type Purchase struct {
    ID         uint64          `json:"id"`
    TenantID   uint64          `json:"tenant_id"`
    RaffleID   uint64          `json:"raffle_id"`
    BuyerID    uint64          `json:"buyer_id"`
    Numbers    []string        `json:"numbers"`
    Total      decimal.Decimal `json:"total"`
    Status     string          `json:"status"`
    PaymentRef string          `json:"payment_ref"`
    PaidAt     *time.Time      `json:"paid_at,omitempty"`
    CreatedAt  time.Time       `json:"created_at"`
}

// Buyer is a customer, deduplicated by national ID.
type Buyer struct {
    ID         uint64 `json:"id"`
    NationalID string `json:"national_id"`
    Name       string `json:"name"`
    Email      string `json:"email"`
    Phone      string `json:"phone"`
}
