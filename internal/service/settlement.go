package service

import (
    "context"
    "errors"
    "fmt"
    "log"

    "github.com/iliyamo/raffle-reservation/internal/inventory"
    "github.com/iliyamo/raffle-reservation/internal/metrics"
    "github.com/iliyamo/raffle-reservation/internal/model"
    "github.com/iliyamo/raffle-reservation/internal/notify"
    "github.com/iliyamo/raffle-reservation/internal/payment"
)

// Settlement results.
const (
    SettleIgnored     = "ignored"           // non-terminal status
    SettleUnknown     = "unknown_reference" // no such purchase
    SettlePaid        = "paid"
    SettleAlreadyPaid = "already_paid"
    SettleReleased    = "released"
    SettleFinal       = "final" // failure reported after payment
)

type paidPurchase struct {
    raffle   model.Raffle
    tenant   model.Tenant
    buyer    model.Buyer
    purchase model.Purchase
}

// Settle applies a payment outcome to the purchase identified by ref.  It
// is idempotent: repeated or out-of-order events leave the first terminal
// outcome in place, and only the first approval notifies anyone.
func (s *Service) Settle(ctx context.Context, ref, status string) (string, error) {
    result, err := s.settle(ctx, ref, status)
    if err != nil {
        result = "error"
    }
    metrics.TrackSettlement(result)
    return result, err
}

func (s *Service) settle(ctx context.Context, ref, status string) (string, error) {
    outcome := payment.Classify(status)
    if outcome == payment.OutcomeNone {
        log.Printf("settlement: %s status %q ignored", ref, status)
        return SettleIgnored, nil
    }
    if _, ok := payment.ParseReference(ref); !ok {
        log.Printf("settlement: unknown reference %q", ref)
        return SettleUnknown, nil
    }

    var (
        result string
        paid   *paidPurchase
    )
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        p, err := tx.GetPurchaseByReference(ctx, ref)
        if errors.Is(err, inventory.ErrNotFound) {
            result = SettleUnknown
            return nil
        }
        if err != nil {
            return fmt.Errorf("load purchase: %w", err)
        }
        r, err := tx.LockRaffle(ctx, p.RaffleID)
        if err != nil {
            return fmt.Errorf("lock raffle: %w", err)
        }
        // re-read under the lock
        if p, err = tx.GetPurchase(ctx, p.ID); err != nil {
            return fmt.Errorf("reload purchase: %w", err)
        }

        if outcome == payment.OutcomeFailed {
            if p.Status == model.PurchasePaid {
                result = SettleFinal
                return nil
            }
            released, err := tx.ReleaseTickets(ctx, r.ID, p.ID)
            if err != nil {
                return fmt.Errorf("release tickets: %w", err)
            }
            log.Printf("settlement: %s %s, released %d tickets", ref, status, len(released))
            result = SettleReleased
            return nil
        }

        if p.Status == model.PurchasePaid {
            result = SettleAlreadyPaid
            return nil
        }
        now := s.clock()
        if err := tx.MarkPurchasePaid(ctx, p.ID, now); err != nil {
            return fmt.Errorf("mark paid: %w", err)
        }
        sold, err := tx.SellTickets(ctx, r.ID, p.Numbers, p.BuyerID, p.ID)
        if err != nil {
            return fmt.Errorf("sell tickets: %w", err)
        }
        if int(sold) != len(p.Numbers) {
            log.Printf("settlement: %s approved but %d of %d tickets belong to another purchase",
                ref, len(p.Numbers)-int(sold), len(p.Numbers))
            metrics.TrackSettlementConflict()
        }
        p.Status, p.PaidAt = model.PurchasePaid, &now

        tenant, err := tx.GetTenant(ctx, p.TenantID)
        if err != nil {
            return fmt.Errorf("load tenant: %w", err)
        }
        buyer, err := tx.GetBuyer(ctx, p.BuyerID)
        if err != nil {
            return fmt.Errorf("load buyer: %w", err)
        }
        paid = &paidPurchase{raffle: r, tenant: tenant, buyer: buyer, purchase: p}
        result = SettlePaid
        return nil
    })
    if err != nil {
        return "", err
    }
    if paid != nil {
        s.notifyPaid(ctx, *paid)
    }
    return result, nil
}

func (s *Service) notifyPaid(ctx context.Context, pp paidPurchase) {
    sum := notify.Summary{
        Kind:       notify.KindPurchaseConfirmed,
        TenantName: pp.tenant.Name,
        RaffleName: pp.raffle.Name,
        Reference:  pp.purchase.PaymentRef,
        Numbers:    pp.purchase.Numbers,
        Total:      pp.purchase.Total,
        BuyerName:  pp.buyer.Name,
        BuyerPhone: pp.buyer.Phone,
    }
    s.dispatch(ctx, buyerContact(pp.buyer), sum)
    sum.Kind = notify.KindSaleAlert
    s.dispatch(ctx, tenantContact(pp.tenant), sum)
}
