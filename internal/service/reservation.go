package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/raffle-reservation/internal/inventory"
    "github.com/iliyamo/raffle-reservation/internal/metrics"
    "github.com/iliyamo/raffle-reservation/internal/model"
    "github.com/iliyamo/raffle-reservation/internal/payment"
)

// ReserveRequest is a buyer's request for a set of numbers.  Numbers is the
// raw comma separated list ("05,12").
type ReserveRequest struct {
    RaffleID   uint64
    Numbers    string
    Name       string
    NationalID string
    Email      string
    Phone      string
}

// Reservation is a successful hold with its checkout link.
type Reservation struct {
    PurchaseID uint64          `json:"purchase_id"`
    Reference  string          `json:"reference"`
    PaymentURL string          `json:"payment_url"`
    Numbers    []string        `json:"numbers"`
    Total      decimal.Decimal `json:"total"`
    ExpiresAt  time.Time       `json:"expires_at"`
}

func (r ReserveRequest) buyer() (model.Buyer, error) {
    b := model.Buyer{
        NationalID: strings.TrimSpace(r.NationalID),
        Name:       strings.TrimSpace(r.Name),
        Email:      strings.TrimSpace(r.Email),
        Phone:      strings.TrimSpace(r.Phone),
    }
    if b.Name == "" || b.NationalID == "" || b.Email == "" || b.Phone == "" {
        return b, incomplete("name, national_id, email and phone are required")
    }
    if !strings.Contains(b.Email, "@") {
        return b, incomplete("email %q is not valid", b.Email)
    }
    return b, nil
}

// held carries what the payment link needs out of the hold transaction.
type held struct {
    tenant   model.Tenant
    purchase model.Purchase
    buyer    model.Buyer
    expires  time.Time
}

// Reserve holds the requested numbers for the buyer and returns a payment
// link.  Either every number is held or none is.  If the link cannot be
// produced the holds and the purchase are removed again.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (Reservation, error) {
    res, err := s.reserve(ctx, req)
    code := ErrorCode(err)
    switch {
    case err == nil:
        code = "ok"
    case code == "":
        code = "error"
    }
    metrics.TrackReservation(code)
    return res, err
}

func (s *Service) reserve(ctx context.Context, req ReserveRequest) (Reservation, error) {
    buyer, err := req.buyer()
    if err != nil {
        return Reservation{}, err
    }
    numbers := inventory.ParseNumbers(req.Numbers)
    if len(numbers) == 0 {
        return Reservation{}, incomplete("numbers are required")
    }
    if req.RaffleID == 0 {
        return Reservation{}, ErrInvalidRaffle
    }

    var h held
    closed := false
    err = s.store.Tx(ctx, func(tx inventory.Tx) error {
        now := s.clock()
        r, err := tx.LockRaffle(ctx, req.RaffleID)
        if errors.Is(err, inventory.ErrNotFound) {
            return ErrInvalidRaffle
        }
        if err != nil {
            return fmt.Errorf("lock raffle: %w", err)
        }
        if r.Status == model.RaffleActive && r.Closed(now) {
            // archive and commit; the caller still gets invalid_raffle
            closed = true
            return tx.SetRaffleStatus(ctx, r.ID, model.RaffleArchived)
        }
        if r.Status != model.RaffleActive {
            return ErrInvalidRaffle
        }
        tenant, err := tx.GetTenant(ctx, r.TenantID)
        if err != nil {
            return fmt.Errorf("load tenant: %w", err)
        }
        if !tenant.Active {
            return ErrInvalidRaffle
        }
        for _, n := range numbers {
            if !inventory.ValidNumber(n, r.DigitWidth) {
                return incomplete("number %q must have %d digits", n, r.DigitWidth)
            }
        }

        if err := s.expire(ctx, tx, r.ID, now); err != nil {
            return err
        }

        tickets, err := inventory.Lookup(ctx, tx, r.ID, numbers)
        var missing *inventory.MissingError
        if err != nil && !errors.As(err, &missing) {
            return fmt.Errorf("lookup tickets: %w", err)
        }
        if conflicts := conflicting(numbers, tickets, missing); len(conflicts) > 0 {
            return &UnavailableError{Numbers: conflicts}
        }

        if err := tx.UpsertBuyer(ctx, &buyer); err != nil {
            return fmt.Errorf("upsert buyer: %w", err)
        }
        p := model.Purchase{
            TenantID:  r.TenantID,
            RaffleID:  r.ID,
            BuyerID:   buyer.ID,
            Numbers:   numbers,
            Total:     r.UnitPrice.Mul(decimal.NewFromInt(int64(len(numbers)))),
            Status:    model.PurchasePending,
            CreatedAt: now,
        }
        if err := tx.CreatePurchase(ctx, &p); err != nil {
            return fmt.Errorf("create purchase: %w", err)
        }
        p.PaymentRef = payment.Reference(p.ID)
        if err := tx.SetPurchaseReference(ctx, p.ID, p.PaymentRef); err != nil {
            return fmt.Errorf("set reference: %w", err)
        }

        expires := now.Add(s.holdDuration)
        n, err := tx.HoldTickets(ctx, r.ID, numbers, buyer.ID, p.ID, expires)
        if err != nil {
            return fmt.Errorf("hold tickets: %w", err)
        }
        if int(n) != len(numbers) {
            // only reachable if the lock was bypassed; report what moved
            after, _ := tx.GetTickets(ctx, r.ID, numbers)
            var lost []string
            for _, t := range after {
                if !t.HeldBy(p.ID) {
                    lost = append(lost, t.Number)
                }
            }
            return &UnavailableError{Numbers: lost}
        }
        h = held{tenant: tenant, purchase: p, buyer: buyer, expires: expires}
        return nil
    })
    if err != nil {
        return Reservation{}, err
    }
    if closed {
        return Reservation{}, ErrInvalidRaffle
    }

    url, err := s.paymentLink(ctx, h)
    if err != nil {
        log.Printf("reservation: payment link for %s failed: %v", h.purchase.PaymentRef, err)
        s.compensate(ctx, h.purchase)
        return Reservation{}, fmt.Errorf("%w: %v", ErrPaymentLinkFailed, err)
    }
    return Reservation{
        PurchaseID: h.purchase.ID,
        Reference:  h.purchase.PaymentRef,
        PaymentURL: url,
        Numbers:    h.purchase.Numbers,
        Total:      h.purchase.Total,
        ExpiresAt:  h.expires,
    }, nil
}

// conflicting returns, in request order, the numbers that are missing or
// not AVAILABLE.
func conflicting(numbers []string, tickets []model.Ticket, missing *inventory.MissingError) []string {
    bad := make(map[string]bool)
    for _, n := range inventory.Unavailable(tickets) {
        bad[n] = true
    }
    if missing != nil {
        for _, n := range missing.Numbers {
            bad[n] = true
        }
    }
    var out []string
    for _, n := range numbers {
        if bad[n] {
            out = append(out, n)
        }
    }
    return out
}

type linkResult struct {
    url string
    err error
}

// paymentLink asks the gateway for a link, giving up after linkTimeout.
func (s *Service) paymentLink(ctx context.Context, h held) (string, error) {
    if s.links == nil {
        return "", errors.New("no payment gateway configured")
    }
    ctx, cancel := context.WithTimeout(ctx, s.linkTimeout)
    defer cancel()

    start := time.Now()
    done := make(chan linkResult, 1)
    go func() {
        url, err := s.links.PaymentLink(ctx, h.tenant, h.purchase, h.buyer)
        done <- linkResult{url, err}
    }()

    var res linkResult
    select {
    case res = <-done:
    case <-ctx.Done():
        res.err = ctx.Err()
    }
    if res.err == nil && res.url == "" {
        res.err = errors.New("gateway returned an empty link")
    }
    metrics.TrackPaymentLink(time.Since(start), res.err)
    return res.url, res.err
}

// compensate releases the purchase's holds and deletes it.  It runs even if
// the request context is already cancelled.
func (s *Service) compensate(ctx context.Context, p model.Purchase) {
    ctx = context.WithoutCancel(ctx)
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        if _, err := tx.LockRaffle(ctx, p.RaffleID); err != nil {
            return err
        }
        if _, err := tx.ReleaseTickets(ctx, p.RaffleID, p.ID); err != nil {
            return err
        }
        return tx.DeletePurchase(ctx, p.ID)
    })
    if err != nil {
        log.Printf("reservation: compensation for %s failed: %v", p.PaymentRef, err)
    }
}
