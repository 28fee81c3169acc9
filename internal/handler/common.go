package handler

import (
    "errors"
    "log"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-reservation/internal/middleware"
    "github.com/iliyamo/raffle-reservation/internal/service"
)

// serviceError writes the JSON error for a service failure.  Reservation
// failures carry their wire code; anything unexpected is a 500.
func serviceError(c echo.Context, err error) error {
    body := echo.Map{"error": service.ErrorCode(err), "message": err.Error()}
    var ue *service.UnavailableError
    switch {
    case errors.As(err, &ue):
        body["unavailable"] = ue.Numbers
        return c.JSON(http.StatusConflict, body)
    case errors.Is(err, service.ErrInvalidRaffle):
        return c.JSON(http.StatusNotFound, body)
    case errors.Is(err, service.ErrIncompleteFields):
        return c.JSON(http.StatusBadRequest, body)
    case errors.Is(err, service.ErrPaymentLinkFailed):
        return c.JSON(http.StatusBadGateway, body)
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, service.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// tenantID returns the tenant from the access token or writes 401.
func tenantID(c echo.Context) (uint64, bool) {
    id, ok := middleware.TenantID(c)
    if !ok {
        _ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return id, ok
}

// pathID parses a positive integer path parameter or writes 400.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        _ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
        return 0, false
    }
    return id, true
}
