package service

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/raffle-reservation/internal/inventory"
    "github.com/iliyamo/raffle-reservation/internal/model"
    "github.com/iliyamo/raffle-reservation/internal/notify"
    "github.com/iliyamo/raffle-reservation/internal/utils"
)

// CreateRaffleInput describes a new raffle.  TicketCount is ignored for
// two digit raffles, which always get the full 00..99 grid.
type CreateRaffleInput struct {
    Name        string
    Description string
    PrizeValue  decimal.Decimal
    DigitWidth  int
    TicketCount int
    UnitPrice   decimal.Decimal
    ClosesAt    *time.Time
}

func (in CreateRaffleInput) validate(now time.Time) error {
    if strings.TrimSpace(in.Name) == "" {
        return incomplete("name is required")
    }
    if in.DigitWidth < inventory.MinDigitWidth || in.DigitWidth > inventory.MaxDigitWidth {
        return incomplete("digit_width must be between %d and %d", inventory.MinDigitWidth, inventory.MaxDigitWidth)
    }
    if in.DigitWidth != inventory.FullGridWidth {
        if limit := inventory.SpaceSize(in.DigitWidth); in.TicketCount < 1 || in.TicketCount > limit {
            return incomplete("ticket_count must be between 1 and %d", limit)
        }
    }
    if !in.UnitPrice.IsPositive() {
        return incomplete("unit_price must be positive")
    }
    if in.PrizeValue.IsNegative() {
        return incomplete("prize_value must not be negative")
    }
    if in.ClosesAt != nil && !in.ClosesAt.After(now) {
        return incomplete("closes_at must be in the future")
    }
    return nil
}

// CreateRaffle creates the raffle and generates all of its tickets in one
// transaction.
func (s *Service) CreateRaffle(ctx context.Context, tenantID uint64, in CreateRaffleInput) (model.Raffle, error) {
    now := s.clock()
    if err := in.validate(now); err != nil {
        return model.Raffle{}, err
    }
    numbers, err := inventory.GenerateNumbers(in.DigitWidth, in.TicketCount, nil)
    if err != nil {
        return model.Raffle{}, incomplete("%v", err)
    }
    r := model.Raffle{
        TenantID:    tenantID,
        Slug:        utils.UniqueSlug(in.Name),
        Name:        strings.TrimSpace(in.Name),
        Description: strings.TrimSpace(in.Description),
        PrizeValue:  in.PrizeValue,
        DigitWidth:  in.DigitWidth,
        TicketCount: len(numbers),
        UnitPrice:   in.UnitPrice,
        Status:      model.RaffleActive,
        ClosesAt:    in.ClosesAt,
        CreatedAt:   now,
    }
    err = s.store.Tx(ctx, func(tx inventory.Tx) error {
        if _, err := tx.GetTenant(ctx, tenantID); err != nil {
            return notFound(err)
        }
        if err := tx.CreateRaffle(ctx, &r); err != nil {
            return fmt.Errorf("create raffle: %w", err)
        }
        return tx.CreateTickets(ctx, r.ID, numbers)
    })
    return r, err
}

// ListRaffles returns the tenant's raffles, archiving the ones whose close
// time has passed.
func (s *Service) ListRaffles(ctx context.Context, tenantID uint64) ([]model.Raffle, error) {
    var out []model.Raffle
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        raffles, err := tx.ListRaffles(ctx, tenantID, false)
        if err != nil {
            return err
        }
        now := s.clock()
        for i, r := range raffles {
            if r.Status == model.RaffleActive && r.Closed(now) {
                if err := tx.SetRaffleStatus(ctx, r.ID, model.RaffleArchived); err != nil {
                    return err
                }
                raffles[i].Status = model.RaffleArchived
            }
        }
        out = raffles
        return nil
    })
    return out, err
}

// ownRaffle locks the raffle and checks it belongs to tenantID.
func ownRaffle(ctx context.Context, tx inventory.Tx, tenantID, raffleID uint64) (model.Raffle, error) {
    r, err := tx.LockRaffle(ctx, raffleID)
    if err != nil {
        return r, notFound(err)
    }
    if r.TenantID != tenantID {
        return r, ErrForbidden
    }
    return r, nil
}

// ArchiveRaffle stops sales on a raffle.
func (s *Service) ArchiveRaffle(ctx context.Context, tenantID, raffleID uint64) error {
    return s.store.Tx(ctx, func(tx inventory.Tx) error {
        if _, err := ownRaffle(ctx, tx, tenantID, raffleID); err != nil {
            return err
        }
        return tx.SetRaffleStatus(ctx, raffleID, model.RaffleArchived)
    })
}

// ListPurchases returns every purchase of the raffle.
func (s *Service) ListPurchases(ctx context.Context, tenantID, raffleID uint64) ([]model.Purchase, error) {
    var out []model.Purchase
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        if _, err := ownRaffle(ctx, tx, tenantID, raffleID); err != nil {
            return err
        }
        var err error
        out, err = tx.ListPurchases(ctx, raffleID)
        return err
    })
    return out, err
}

// Holder is the buyer of a ticket number.
type Holder struct {
    Number     string       `json:"number"`
    State      string       `json:"state"`
    PurchaseID uint64       `json:"purchase_id,omitempty"`
    Buyer      *model.Buyer `json:"buyer,omitempty"`
}

func holderOf(ctx context.Context, tx inventory.Tx, r model.Raffle, number string) (Holder, error) {
    number = strings.TrimSpace(number)
    if !inventory.ValidNumber(number, r.DigitWidth) {
        return Holder{}, incomplete("number %q must have %d digits", number, r.DigitWidth)
    }
    tickets, err := inventory.Lookup(ctx, tx, r.ID, []string{number})
    if errors.Is(err, inventory.ErrNotAllFound) {
        return Holder{}, ErrNotFound
    }
    if err != nil {
        return Holder{}, err
    }
    t := tickets[0]
    h := Holder{Number: t.Number, State: stateName(t.State)}
    if t.PurchaseID != nil {
        h.PurchaseID = *t.PurchaseID
    }
    if t.BuyerID != nil {
        b, err := tx.GetBuyer(ctx, *t.BuyerID)
        if err != nil {
            return Holder{}, fmt.Errorf("load buyer: %w", err)
        }
        h.Buyer = &b
    }
    return h, nil
}

// FindHolder looks up who holds or bought a number.
func (s *Service) FindHolder(ctx context.Context, tenantID, raffleID uint64, number string) (Holder, error) {
    var h Holder
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        r, err := ownRaffle(ctx, tx, tenantID, raffleID)
        if err != nil {
            return err
        }
        if err := s.expire(ctx, tx, r.ID, s.clock()); err != nil {
            return err
        }
        h, err = holderOf(ctx, tx, r, number)
        return err
    })
    return h, err
}

// DeclareWinner records the winning number, which must have been sold,
// and notifies its buyer.
func (s *Service) DeclareWinner(ctx context.Context, tenantID, raffleID uint64, number string) (Holder, error) {
    var (
        h      Holder
        r      model.Raffle
        tenant model.Tenant
    )
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        var err error
        if r, err = ownRaffle(ctx, tx, tenantID, raffleID); err != nil {
            return err
        }
        if h, err = holderOf(ctx, tx, r, number); err != nil {
            return err
        }
        if h.State != "sold" || h.Buyer == nil {
            return incomplete("number %s was not sold", h.Number)
        }
        if tenant, err = tx.GetTenant(ctx, r.TenantID); err != nil {
            return err
        }
        return tx.SetWinningNumber(ctx, r.ID, h.Number)
    })
    if err != nil {
        return Holder{}, err
    }
    s.dispatch(ctx, buyerContact(*h.Buyer), notify.Summary{
        Kind:       notify.KindWinner,
        TenantName: tenant.Name,
        RaffleName: r.Name,
        Numbers:    []string{h.Number},
        BuyerName:  h.Buyer.Name,
        BuyerPhone: h.Buyer.Phone,
    })
    return h, nil
}

// Winner is one entry of a tenant's winners history.
type Winner struct {
    RaffleID   uint64 `json:"raffle_id"`
    RaffleName string `json:"raffle_name"`
    Number     string `json:"number"`
    BuyerName  string `json:"buyer_name"`
    BuyerPhone string `json:"buyer_phone"`
}

// ListWinners returns the declared winners of the tenant's raffles.
func (s *Service) ListWinners(ctx context.Context, tenantID uint64) ([]Winner, error) {
    var out []Winner
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        raffles, err := tx.ListRaffles(ctx, tenantID, false)
        if err != nil {
            return err
        }
        for _, r := range raffles {
            if r.WinningNumber == nil {
                continue
            }
            w := Winner{RaffleID: r.ID, RaffleName: r.Name, Number: *r.WinningNumber}
            if h, err := holderOf(ctx, tx, r, w.Number); err == nil && h.Buyer != nil {
                w.BuyerName, w.BuyerPhone = h.Buyer.Name, h.Buyer.Phone
            }
            out = append(out, w)
        }
        return nil
    })
    return out, err
}

// UpdatePaymentSettings stores the tenant's gateway credentials.
func (s *Service) UpdatePaymentSettings(ctx context.Context, tenantID uint64, publicKey, privateKey, integritySecret string) error {
    publicKey, privateKey = strings.TrimSpace(publicKey), strings.TrimSpace(privateKey)
    if !strings.HasPrefix(publicKey, "pub_") {
        return incomplete("public key must start with pub_")
    }
    if privateKey == "" {
        return incomplete("private key is required")
    }
    return s.store.Tx(ctx, func(tx inventory.Tx) error {
        return notFound(tx.UpdatePaymentSettings(ctx, tenantID, publicKey, privateKey, strings.TrimSpace(integritySecret)))
    })
}

// RaffleView is the public detail of a raffle.
type RaffleView struct {
    model.Raffle
    TenantName string `json:"tenant_name"`
    TenantSlug string `json:"tenant_slug"`
    Available  int    `json:"available"`
    Held       int    `json:"held"`
    Sold       int    `json:"sold"`
}

// GetRaffle returns the public view of a raffle by slug.
func (s *Service) GetRaffle(ctx context.Context, slug string) (RaffleView, error) {
    var v RaffleView
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        r, err := tx.GetRaffleBySlug(ctx, slug)
        if err != nil {
            return notFound(err)
        }
        tenant, err := tx.GetTenant(ctx, r.TenantID)
        if err != nil {
            return notFound(err)
        }
        if !tenant.Active {
            return ErrNotFound
        }
        tickets, err := tx.ListTickets(ctx, r.ID)
        if err != nil {
            return err
        }
        now := s.clock()
        v = RaffleView{Raffle: r, TenantName: tenant.Name, TenantSlug: tenant.Slug}
        if v.Status == model.RaffleActive && r.Closed(now) {
            v.Status = model.RaffleArchived
        }
        for _, t := range tickets {
            switch {
            case t.State == model.TicketSold:
                v.Sold++
            case t.State == model.TicketHeld && t.HoldExpiresAt != nil && t.HoldExpiresAt.After(now):
                v.Held++
            default:
                v.Available++
            }
        }
        return nil
    })
    return v, err
}

// ListTenantRaffles returns the active raffles of the tenant with the
// given slug.
func (s *Service) ListTenantRaffles(ctx context.Context, tenantSlug string) (model.Tenant, []model.Raffle, error) {
    var (
        tenant model.Tenant
        out    []model.Raffle
    )
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        var err error
        if tenant, err = tx.GetTenantBySlug(ctx, tenantSlug); err != nil {
            return notFound(err)
        }
        if !tenant.Active {
            return ErrNotFound
        }
        raffles, err := tx.ListRaffles(ctx, tenant.ID, true)
        if err != nil {
            return err
        }
        now := s.clock()
        out = make([]model.Raffle, 0, len(raffles))
        for _, r := range raffles {
            if r.Active(now) {
                out = append(out, r)
            }
        }
        return nil
    })
    return tenant, out, err
}
