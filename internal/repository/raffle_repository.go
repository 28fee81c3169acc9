package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/raffle-reservation/internal/model"
)

// RaffleRepo reads and writes the raffles table.
type RaffleRepo struct{ q querier }

const raffleColumns = `id, tenant_id, slug, name, description, prize_value, digit_width,
    ticket_count, unit_price, status, closes_at, winning_number, created_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanRaffle(s rowScanner) (model.Raffle, error) {
    var (
        r       model.Raffle
        closes  sql.NullTime
        winning sql.NullString
    )
    err := s.Scan(&r.ID, &r.TenantID, &r.Slug, &r.Name, &r.Description, &r.PrizeValue, &r.DigitWidth,
        &r.TicketCount, &r.UnitPrice, &r.Status, &closes, &winning, &r.CreatedAt)
    if err != nil {
        return model.Raffle{}, mapErr(err)
    }
    if closes.Valid {
        t := closes.Time.UTC()
        r.ClosesAt = &t
    }
    if winning.Valid {
        w := winning.String
        r.WinningNumber = &w
    }
    return r, nil
}

// LockRaffle selects the raffle row FOR UPDATE.  Concurrent reservations and
// settlements for the same raffle queue behind this lock until commit.
func (r RaffleRepo) LockRaffle(ctx context.Context, raffleID uint64) (model.Raffle, error) {
    return scanRaffle(r.q.QueryRowContext(ctx,
        `SELECT `+raffleColumns+` FROM raffles WHERE id = ? FOR UPDATE`, raffleID))
}

func (r RaffleRepo) GetRaffle(ctx context.Context, raffleID uint64) (model.Raffle, error) {
    return scanRaffle(r.q.QueryRowContext(ctx,
        `SELECT `+raffleColumns+` FROM raffles WHERE id = ?`, raffleID))
}

func (r RaffleRepo) GetRaffleBySlug(ctx context.Context, slug string) (model.Raffle, error) {
    return scanRaffle(r.q.QueryRowContext(ctx,
        `SELECT `+raffleColumns+` FROM raffles WHERE slug = ?`, slug))
}

func (r RaffleRepo) ListRaffles(ctx context.Context, tenantID uint64, activeOnly bool) ([]model.Raffle, error) {
    q := `SELECT ` + raffleColumns + ` FROM raffles WHERE tenant_id = ?`
    args := []any{tenantID}
    if activeOnly {
        q += ` AND status = ?`
        args = append(args, model.RaffleActive)
    }
    q += ` ORDER BY id DESC`
    rows, err := r.q.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Raffle
    for rows.Next() {
        raffle, err := scanRaffle(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, raffle)
    }
    return out, rows.Err()
}

// CreateRaffle inserts the raffle and reads back defaults such as created_at.
func (r RaffleRepo) CreateRaffle(ctx context.Context, raffle *model.Raffle) error {
    var closes sql.NullTime
    if raffle.ClosesAt != nil {
        closes = sql.NullTime{Time: raffle.ClosesAt.UTC(), Valid: true}
    }
    res, err := r.q.ExecContext(ctx,
        `INSERT INTO raffles (tenant_id, slug, name, description, prize_value, digit_width, ticket_count, unit_price, status, closes_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        raffle.TenantID, raffle.Slug, raffle.Name, raffle.Description, raffle.PrizeValue, raffle.DigitWidth,
        raffle.TicketCount, raffle.UnitPrice, raffle.Status, closes)
    if err != nil {
        return mapErr(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    created, err := r.GetRaffle(ctx, uint64(id))
    if err != nil {
        return err
    }
    *raffle = created
    return nil
}

func (r RaffleRepo) SetRaffleStatus(ctx context.Context, raffleID uint64, status string) error {
    _, err := r.q.ExecContext(ctx, `UPDATE raffles SET status = ? WHERE id = ?`, status, raffleID)
    return err
}

func (r RaffleRepo) SetWinningNumber(ctx context.Context, raffleID uint64, number string) error {
    _, err := r.q.ExecContext(ctx, `UPDATE raffles SET winning_number = ? WHERE id = ?`, number, raffleID)
    return err
}
