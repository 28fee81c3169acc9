package repository

import (
    "context"

    "github.com/iliyamo/raffle-reservation/internal/model"
)

// TenantRepo reads and writes the tenants table.
type TenantRepo struct{ q querier }

const tenantColumns = `id, slug, name, whatsapp, email, telegram_chat_id, is_active,
    wompi_public_key, wompi_private_key, wompi_integrity_secret, created_at`

func (r TenantRepo) get(ctx context.Context, where string, arg any) (model.Tenant, error) {
    var t model.Tenant
    err := r.q.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE `+where+` = ?`, arg).Scan(
        &t.ID, &t.Slug, &t.Name, &t.WhatsApp, &t.Email, &t.TelegramChatID, &t.Active,
        &t.PublicKey, &t.PrivateKey, &t.IntegritySecret, &t.CreatedAt)
    return t, mapErr(err)
}

func (r TenantRepo) GetTenant(ctx context.Context, tenantID uint64) (model.Tenant, error) {
    return r.get(ctx, "id", tenantID)
}

func (r TenantRepo) GetTenantBySlug(ctx context.Context, slug string) (model.Tenant, error) {
    return r.get(ctx, "slug", slug)
}

func (r TenantRepo) CreateTenant(ctx context.Context, t *model.Tenant) error {
    res, err := r.q.ExecContext(ctx,
        `INSERT INTO tenants (slug, name, whatsapp, email, telegram_chat_id, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
        t.Slug, t.Name, t.WhatsApp, t.Email, t.TelegramChatID, t.Active)
    if err != nil {
        return mapErr(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

func (r TenantRepo) UpdatePaymentSettings(ctx context.Context, tenantID uint64, publicKey, privateKey, integritySecret string) error {
    _, err := r.q.ExecContext(ctx,
        `UPDATE tenants SET wompi_public_key = ?, wompi_private_key = ?, wompi_integrity_secret = ? WHERE id = ?`,
        publicKey, privateKey, integritySecret, tenantID)
    return err
}
