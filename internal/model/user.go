package model

import "time"

// TenantUser is an administrator account belonging to a single tenant.
// Only bcrypt hashes of passwords are stored.
//
// Fields:
//  ID           – primary key identifier.
//  TenantID     – owning tenant.
//  Email        – unique email address (lower-cased).
//  PasswordHash – bcrypt hashed password.
//  Role         – role claim placed in access tokens (ADMIN).
//  IsActive     – disabled accounts cannot log in.
type TenantUser struct {
    ID           uint64    // tenant_users.id
    TenantID     uint64    // tenant_users.tenant_id
    Email        string    // tenant_users.email
    PasswordHash string    // tenant_users.password_hash
    Role         string    // tenant_users.role
    IsActive     bool      // tenant_users.is_active
    CreatedAt    time.Time // tenant_users.created_at
}

// RoleAdmin is the only role issued to tenant users.
const RoleAdmin = "ADMIN"

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored, only its SHA-256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}
