package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/raffle-reservation/internal/model"
)

// TicketRepo reads and writes the tickets table.  State changes are
// conditional UPDATEs, so a caller working from a stale read can never
// move a ticket out of a state it is no longer in; RowsAffected tells the
// caller how many tickets actually changed.
type TicketRepo struct{ q querier }

// ticketInsertBatch bounds the rows per INSERT for large raffles.
const ticketInsertBatch = 1000

// CreateTickets bulk inserts AVAILABLE tickets.  A repeated number violates
// uk_ticket_number and surfaces as inventory.ErrDuplicate.
func (r TicketRepo) CreateTickets(ctx context.Context, raffleID uint64, numbers []string) error {
    for start := 0; start < len(numbers); start += ticketInsertBatch {
        end := min(start+ticketInsertBatch, len(numbers))
        batch := numbers[start:end]
        var b strings.Builder
        b.WriteString(`INSERT INTO tickets (raffle_id, number, status) VALUES `)
        args := make([]any, 0, len(batch)*3)
        for i, n := range batch {
            if i > 0 {
                b.WriteString(",")
            }
            b.WriteString("(?, ?, ?)")
            args = append(args, raffleID, n, model.TicketAvailable)
        }
        if _, err := r.q.ExecContext(ctx, b.String(), args...); err != nil {
            return mapErr(err)
        }
    }
    return nil
}

// ExpireHolds frees every hold of the raffle whose expiry is at or before
// now and returns the numbers that were freed.
func (r TicketRepo) ExpireHolds(ctx context.Context, raffleID uint64, now time.Time) ([]string, error) {
    now = now.UTC()
    rows, err := r.q.QueryContext(ctx,
        `SELECT number FROM tickets WHERE raffle_id = ? AND status = 'HELD' AND hold_expires_at <= ? ORDER BY number`,
        raffleID, now)
    if err != nil {
        return nil, err
    }
    expired, err := scanNumbers(rows)
    if err != nil {
        return nil, err
    }
    if len(expired) == 0 {
        return []string{}, nil
    }
    _, err = r.q.ExecContext(ctx,
        `UPDATE tickets SET status = 'AVAILABLE', buyer_id = NULL, purchase_id = NULL, hold_expires_at = NULL
         WHERE raffle_id = ? AND status = 'HELD' AND hold_expires_at <= ?`,
        raffleID, now)
    if err != nil {
        return nil, err
    }
    return expired, nil
}

func (r TicketRepo) GetTickets(ctx context.Context, raffleID uint64, numbers []string) ([]model.Ticket, error) {
    if len(numbers) == 0 {
        return nil, nil
    }
    rows, err := r.q.QueryContext(ctx,
        `SELECT raffle_id, number, status, buyer_id, purchase_id, hold_expires_at FROM tickets
         WHERE raffle_id = ? AND number IN (`+placeholders(len(numbers))+`)`,
        stringArgs([]any{raffleID}, numbers)...)
    if err != nil {
        return nil, err
    }
    return scanTickets(rows)
}

func (r TicketRepo) ListTickets(ctx context.Context, raffleID uint64) ([]model.Ticket, error) {
    rows, err := r.q.QueryContext(ctx,
        `SELECT raffle_id, number, status, buyer_id, purchase_id, hold_expires_at FROM tickets
         WHERE raffle_id = ? ORDER BY number`, raffleID)
    if err != nil {
        return nil, err
    }
    return scanTickets(rows)
}

func (r TicketRepo) HoldTickets(ctx context.Context, raffleID uint64, numbers []string, buyerID, purchaseID uint64, expiresAt time.Time) (int64, error) {
    if len(numbers) == 0 {
        return 0, nil
    }
    return rowsAffected(r.q.ExecContext(ctx,
        `UPDATE tickets SET status = 'HELD', buyer_id = ?, purchase_id = ?, hold_expires_at = ?
         WHERE raffle_id = ? AND status = 'AVAILABLE' AND number IN (`+placeholders(len(numbers))+`)`,
        stringArgs([]any{buyerID, purchaseID, expiresAt.UTC(), raffleID}, numbers)...))
}

func (r TicketRepo) ReleaseTickets(ctx context.Context, raffleID, purchaseID uint64) ([]string, error) {
    rows, err := r.q.QueryContext(ctx,
        `SELECT number FROM tickets WHERE raffle_id = ? AND purchase_id = ? AND status = 'HELD' ORDER BY number`,
        raffleID, purchaseID)
    if err != nil {
        return nil, err
    }
    released, err := scanNumbers(rows)
    if err != nil || len(released) == 0 {
        return released, err
    }
    _, err = r.q.ExecContext(ctx,
        `UPDATE tickets SET status = 'AVAILABLE', buyer_id = NULL, purchase_id = NULL, hold_expires_at = NULL
         WHERE raffle_id = ? AND purchase_id = ? AND status = 'HELD'`,
        raffleID, purchaseID)
    if err != nil {
        return nil, err
    }
    return released, nil
}

func (r TicketRepo) SellTickets(ctx context.Context, raffleID uint64, numbers []string, buyerID, purchaseID uint64) (int64, error) {
    if len(numbers) == 0 {
        return 0, nil
    }
    head := []any{buyerID, purchaseID, raffleID}
    args := stringArgs(head, numbers)
    args = append(args, purchaseID)
    return rowsAffected(r.q.ExecContext(ctx,
        `UPDATE tickets SET status = 'SOLD', buyer_id = ?, purchase_id = ?, hold_expires_at = NULL
         WHERE raffle_id = ? AND number IN (`+placeholders(len(numbers))+`)
           AND (status = 'AVAILABLE' OR (status = 'HELD' AND purchase_id = ?))`,
        args...))
}

func scanNumbers(rows *sql.Rows) ([]string, error) {
    defer rows.Close()
    var out []string
    for rows.Next() {
        var n string
        if err := rows.Scan(&n); err != nil {
            return nil, err
        }
        out = append(out, n)
    }
    return out, rows.Err()
}

func scanTickets(rows *sql.Rows) ([]model.Ticket, error) {
    defer rows.Close()
    var out []model.Ticket
    for rows.Next() {
        var (
            t        model.Ticket
            buyer    sql.NullInt64
            purchase sql.NullInt64
            expires  sql.NullTime
        )
        if err := rows.Scan(&t.RaffleID, &t.Number, &t.State, &buyer, &purchase, &expires); err != nil {
            return nil, err
        }
        if buyer.Valid {
            v := uint64(buyer.Int64)
            t.BuyerID = &v
        }
        if purchase.Valid {
            v := uint64(purchase.Int64)
            t.PurchaseID = &v
        }
        if expires.Valid {
            v := expires.Time.UTC()
            t.HoldExpiresAt = &v
        }
        out = append(out, t)
    }
    return out, rows.Err()
}
