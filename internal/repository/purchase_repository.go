package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/raffle-reservation/internal/model"
)

// PurchaseRepo reads and writes buyers, purchases and purchase_tickets.
// All timestamps are stored in UTC.
type PurchaseRepo struct{ q querier }

// UpsertBuyer inserts the buyer or refreshes the contact details of the
// existing row with the same national_id.  LAST_INSERT_ID(id) makes the
// existing row's id visible through LastInsertId.
func (r PurchaseRepo) UpsertBuyer(ctx context.Context, b *model.Buyer) error {
    res, err := r.q.ExecContext(ctx,
        `INSERT INTO buyers (national_id, name, email, phone) VALUES (?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE name = VALUES(name), email = VALUES(email), phone = VALUES(phone), id = LAST_INSERT_ID(id)`,
        b.NationalID, b.Name, b.Email, b.Phone)
    if err != nil {
        return mapErr(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

func (r PurchaseRepo) GetBuyer(ctx context.Context, buyerID uint64) (model.Buyer, error) {
    var b model.Buyer
    err := r.q.QueryRowContext(ctx,
        `SELECT id, national_id, name, email, phone FROM buyers WHERE id = ?`, buyerID,
    ).Scan(&b.ID, &b.NationalID, &b.Name, &b.Email, &b.Phone)
    return b, mapErr(err)
}

// CreatePurchase inserts the purchase and one purchase_tickets row per
// number, then reads back the stored row.
func (r PurchaseRepo) CreatePurchase(ctx context.Context, p *model.Purchase) error {
    res, err := r.q.ExecContext(ctx,
        `INSERT INTO purchases (tenant_id, raffle_id, buyer_id, total, status, payment_ref) VALUES (?, ?, ?, ?, ?, ?)`,
        p.TenantID, p.RaffleID, p.BuyerID, p.Total, p.Status, nullString(p.PaymentRef))
    if err != nil {
        return mapErr(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    if len(p.Numbers) > 0 {
        var b strings.Builder
        b.WriteString(`INSERT INTO purchase_tickets (purchase_id, number) VALUES `)
        args := make([]any, 0, len(p.Numbers)*2)
        for i, n := range p.Numbers {
            if i > 0 {
                b.WriteString(",")
            }
            b.WriteString("(?, ?)")
            args = append(args, id, n)
        }
        if _, err := r.q.ExecContext(ctx, b.String(), args...); err != nil {
            return mapErr(err)
        }
    }
    created, err := r.GetPurchase(ctx, uint64(id))
    if err != nil {
        return err
    }
    *p = created
    return nil
}

func (r PurchaseRepo) SetPurchaseReference(ctx context.Context, purchaseID uint64, ref string) error {
    _, err := r.q.ExecContext(ctx, `UPDATE purchases SET payment_ref = ? WHERE id = ?`, ref, purchaseID)
    return mapErr(err)
}

const purchaseColumns = `id, tenant_id, raffle_id, buyer_id, total, status, payment_ref, paid_at, created_at`

func (r PurchaseRepo) scanPurchase(ctx context.Context, row *sql.Row) (model.Purchase, error) {
    var (
        p      model.Purchase
        ref    sql.NullString
        paidAt sql.NullTime
    )
    if err := row.Scan(&p.ID, &p.TenantID, &p.RaffleID, &p.BuyerID, &p.Total, &p.Status, &ref, &paidAt, &p.CreatedAt); err != nil {
        return model.Purchase{}, mapErr(err)
    }
    p.PaymentRef = ref.String
    if paidAt.Valid {
        t := paidAt.Time.UTC()
        p.PaidAt = &t
    }
    rows, err := r.q.QueryContext(ctx, `SELECT number FROM purchase_tickets WHERE purchase_id = ? ORDER BY number`, p.ID)
    if err != nil {
        return model.Purchase{}, err
    }
    if p.Numbers, err = scanNumbers(rows); err != nil {
        return model.Purchase{}, err
    }
    return p, nil
}

func (r PurchaseRepo) GetPurchase(ctx context.Context, purchaseID uint64) (model.Purchase, error) {
    return r.scanPurchase(ctx, r.q.QueryRowContext(ctx,
        `SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`, purchaseID))
}

func (r PurchaseRepo) GetPurchaseByReference(ctx context.Context, ref string) (model.Purchase, error) {
    return r.scanPurchase(ctx, r.q.QueryRowContext(ctx,
        `SELECT `+purchaseColumns+` FROM purchases WHERE payment_ref = ?`, ref))
}

func (r PurchaseRepo) MarkPurchasePaid(ctx context.Context, purchaseID uint64, paidAt time.Time) error {
    _, err := r.q.ExecContext(ctx,
        `UPDATE purchases SET status = 'PAID', paid_at = ? WHERE id = ?`, paidAt.UTC(), purchaseID)
    return err
}

// DeletePurchase removes the purchase; purchase_tickets rows cascade.
func (r PurchaseRepo) DeletePurchase(ctx context.Context, purchaseID uint64) error {
    _, err := r.q.ExecContext(ctx, `DELETE FROM purchases WHERE id = ?`, purchaseID)
    return err
}

// ListPurchases returns the raffle's purchases with their numbers, oldest
// first.
func (r PurchaseRepo) ListPurchases(ctx context.Context, raffleID uint64) ([]model.Purchase, error) {
    rows, err := r.q.QueryContext(ctx, `SELECT id FROM purchases WHERE raffle_id = ? ORDER BY id`, raffleID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    rows.Close()
    out := make([]model.Purchase, 0, len(ids))
    for _, id := range ids {
        p, err := r.GetPurchase(ctx, id)
        if err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    return out, nil
}
