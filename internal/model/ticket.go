package model

import (
    "fmt"
    "time"
)

// Ticket states.
const (
    TicketAvailable = "AVAILABLE"
    TicketHeld      = "HELD"
    TicketSold      = "SOLD"
)

// Ticket is one numbered slot within a raffle.  BuyerID and PurchaseID are
// set while the ticket is held or sold; HoldExpiresAt only while held.
type Ticket struct {
    RaffleID      uint64     // tickets.raffle_id
    Number        string     // tickets.number, zero padded
    State         string     // tickets.status
    BuyerID       *uint64    // tickets.buyer_id (nullable)
    PurchaseID    *uint64    // tickets.purchase_id (nullable)
    HoldExpiresAt *time.Time // tickets.hold_expires_at (nullable)
}

// Validate checks the holder/expiry nullness rules for the ticket's state.
func (t Ticket) Validate() error {
    switch t.State {
    case TicketAvailable:
        if t.BuyerID != nil || t.PurchaseID != nil || t.HoldExpiresAt != nil {
            return fmt.Errorf("ticket %s: available ticket has a holder", t.Number)
        }
    case TicketHeld:
        if t.BuyerID == nil || t.PurchaseID == nil || t.HoldExpiresAt == nil {
            return fmt.Errorf("ticket %s: held ticket missing holder or expiry", t.Number)
        }
    case TicketSold:
        if t.BuyerID == nil || t.PurchaseID == nil {
            return fmt.Errorf("ticket %s: sold ticket missing holder", t.Number)
        }
        if t.HoldExpiresAt != nil {
            return fmt.Errorf("ticket %s: sold ticket has an expiry", t.Number)
        }
    default:
        return fmt.Errorf("ticket %s: unknown state %q", t.Number, t.State)
    }
    return nil
}

// HeldBy reports whether the ticket is currently held by purchaseID.
func (t Ticket) HeldBy(purchaseID uint64) bool {
    return t.State == TicketHeld && t.PurchaseID != nil && *t.PurchaseID == purchaseID
}
