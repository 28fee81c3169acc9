package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/raffle-reservation/internal/model"
	"github.com/iliyamo/raffle-reservation/internal/utils"
)

// UserRepo manages tenant administrator accounts.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// CreateUser hashes the password and inserts an ADMIN account for the
// tenant.  A reused email surfaces as inventory.ErrDuplicate.
func (r *UserRepo) CreateUser(ctx context.Context, tenantID uint64, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO tenant_users (tenant_id, email, password_hash, role) VALUES (?,?,?,?)",
		tenantID, email, hash, model.RoleAdmin)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const userColumns = "id,tenant_id,email,password_hash,role,is_active,created_at"

func (r *UserRepo) getUser(ctx context.Context, where string, arg any) (model.TenantUser, error) {
	var u model.TenantUser
	err := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM tenant_users WHERE "+where+"=? LIMIT 1", arg,
	).Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, mapErr(err)
}

// GetUserByEmail fetches a user by normalized email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.TenantUser, error) {
	return r.getUser(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id uint64) (model.TenantUser, error) {
	return r.getUser(ctx, "id", id)
}
