package middleware

import (
    "strconv"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    KeyUserID   = "user_id"
    KeyTenantID = "tenant_id"
    KeyRole     = "role"
)

// claimID reads a numeric claim.  JSON numbers decode as float64; string
// forms are accepted too.
func claimID(claims jwt.MapClaims, name string) (uint64, bool) {
    switch v := claims[name].(type) {
    case float64:
        if v > 0 {
            return uint64(v), true
        }
    case string:
        if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
            return n, true
        }
    }
    return 0, false
}

// UserID returns the authenticated tenant user.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(KeyUserID).(uint64)
    return id, ok && id > 0
}

// TenantID returns the tenant every admin operation is scoped to.
func TenantID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(KeyTenantID).(uint64)
    return id, ok && id > 0
}

// subject is the rate limit identity: the user ID or "anon".
func subject(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
