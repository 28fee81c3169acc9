package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/raffle-reservation/internal/inventory"
    "github.com/iliyamo/raffle-reservation/internal/metrics"
    "github.com/iliyamo/raffle-reservation/internal/model"
)

// expire reclaims the raffle's lapsed holds inside tx.
func (s *Service) expire(ctx context.Context, tx inventory.Tx, raffleID uint64, now time.Time) error {
    reclaimed, err := tx.ExpireHolds(ctx, raffleID, now)
    if err != nil {
        return fmt.Errorf("expire holds: %w", err)
    }
    if len(reclaimed) > 0 {
        log.Printf("sweeper: raffle %d reclaimed %d expired holds", raffleID, len(reclaimed))
        metrics.TrackHoldsExpired(len(reclaimed))
    }
    return nil
}

// Sweep makes every expired hold of the raffle available again and
// returns how many tickets were reclaimed.
func (s *Service) Sweep(ctx context.Context, tenantID, raffleID uint64) (int, error) {
    var n int
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        if _, err := ownRaffle(ctx, tx, tenantID, raffleID); err != nil {
            return err
        }
        now := s.clock()
        reclaimed, err := tx.ExpireHolds(ctx, raffleID, now)
        if err != nil {
            return err
        }
        n = len(reclaimed)
        metrics.TrackHoldsExpired(n)
        return nil
    })
    return n, err
}

// TicketState is one cell of the public ticket grid.
type TicketState struct {
    Number string `json:"number"`
    State  string `json:"state"`
}

// TicketGrid sweeps the raffle and returns every ticket with its state in
// lower case (available, held, sold).
func (s *Service) TicketGrid(ctx context.Context, slug string) (model.Raffle, []TicketState, error) {
    var (
        r    model.Raffle
        grid []TicketState
    )
    err := s.store.Tx(ctx, func(tx inventory.Tx) error {
        found, err := tx.GetRaffleBySlug(ctx, slug)
        if err != nil {
            return notFound(err)
        }
        if r, err = tx.LockRaffle(ctx, found.ID); err != nil {
            return err
        }
        if err := s.expire(ctx, tx, r.ID, s.clock()); err != nil {
            return err
        }
        tickets, err := tx.ListTickets(ctx, r.ID)
        if err != nil {
            return err
        }
        grid = make([]TicketState, len(tickets))
        for i, t := range tickets {
            grid[i] = TicketState{Number: t.Number, State: stateName(t.State)}
        }
        return nil
    })
    return r, grid, err
}

func stateName(state string) string {
    switch state {
    case model.TicketHeld:
        return "held"
    case model.TicketSold:
        return "sold"
    default:
        return "available"
    }
}

func notFound(err error) error {
    if errors.Is(err, inventory.ErrNotFound) {
        return ErrNotFound
    }
    return err
}
