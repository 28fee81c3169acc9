// Package service implements the raffle state machine: reserving numbers,
// settling payment events, reclaiming expired holds and the tenant
// administration built on top of them.  All state changes go through
// inventory.Store transactions that lock the raffle first.
package service

import (
    "context"
    "log"
    "time"

    "github.com/iliyamo/raffle-reservation/internal/inventory"
    "github.com/iliyamo/raffle-reservation/internal/metrics"
    "github.com/iliyamo/raffle-reservation/internal/model"
    "github.com/iliyamo/raffle-reservation/internal/notify"
)

// LinkGenerator produces a hosted checkout link for a pending purchase.
type LinkGenerator interface {
    PaymentLink(ctx context.Context, tenant model.Tenant, p model.Purchase, buyer model.Buyer) (string, error)
}

// Notifier delivers a summary to a contact.  Implementations are best
// effort; the service logs and discards their errors.
type Notifier interface {
    Notify(ctx context.Context, to notify.Contact, s notify.Summary) error
}

// Options tunes a Service.  Zero values take the defaults.
type Options struct {
    HoldDuration time.Duration    // default 30m
    LinkTimeout  time.Duration    // default 10s
    Now          func() time.Time // default time.Now
}

// Service wires the store to the payment gateway and the notifier.
type Service struct {
    store    inventory.Store
    links    LinkGenerator
    notifier Notifier

    holdDuration time.Duration
    linkTimeout  time.Duration
    now          func() time.Time
}

func New(store inventory.Store, links LinkGenerator, notifier Notifier, opts Options) *Service {
    s := &Service{
        store:        store,
        links:        links,
        notifier:     notifier,
        holdDuration: opts.HoldDuration,
        linkTimeout:  opts.LinkTimeout,
        now:          opts.Now,
    }
    if s.holdDuration <= 0 {
        s.holdDuration = 30 * time.Minute
    }
    if s.linkTimeout <= 0 {
        s.linkTimeout = 10 * time.Second
    }
    if s.now == nil {
        s.now = time.Now
    }
    if s.notifier == nil {
        s.notifier = notify.Log{}
    }
    return s
}

func (s *Service) clock() time.Time { return s.now().UTC() }

// dispatch sends a notification and swallows the error.
func (s *Service) dispatch(ctx context.Context, to notify.Contact, sum notify.Summary) {
    err := s.notifier.Notify(context.WithoutCancel(ctx), to, sum)
    metrics.TrackNotification(string(sum.Kind), err)
    if err != nil {
        log.Printf("notify: %s for %s failed: %v", sum.Kind, sum.Reference, err)
    }
}

func buyerContact(b model.Buyer) notify.Contact {
    return notify.Contact{Name: b.Name, Phone: b.Phone, Email: b.Email}
}

func tenantContact(t model.Tenant) notify.Contact {
    return notify.Contact{Name: t.Name, Phone: t.WhatsApp, Email: t.Email, TelegramChatID: t.TelegramChatID}
}
