package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/raffle-reservation/internal/service"
)

// AdminHandler serves the tenant back office.  Every route runs behind
// JWTAuth and RequireRole(ADMIN); the tenant comes from the token.
type AdminHandler struct {
    Svc *service.Service
}

func NewAdminHandler(svc *service.Service) *AdminHandler {
    return &AdminHandler{Svc: svc}
}

type createRaffleReq struct {
    Name        string          `json:"name"`
    Description string          `json:"description"`
    PrizeValue  decimal.Decimal `json:"prize_value"`
    DigitWidth  int             `json:"digit_width"`
    TicketCount int             `json:"ticket_count"`
    UnitPrice   decimal.Decimal `json:"unit_price"`
    ClosesAt    *time.Time      `json:"closes_at"`
}

// CreateRaffle handles POST /v1/admin/raffles.
func (h *AdminHandler) CreateRaffle(c echo.Context) error {
    tid, ok := tenantID(c)
    if !ok {
        return nil
    }
    var req createRaffleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    r, err := h.Svc.CreateRaffle(c.Request().Context(), tid, service.CreateRaffleInput{
        Name:        req.Name,
        Description: req.Description,
        PrizeValue:  req.PrizeValue,
        DigitWidth:  req.DigitWidth,
        TicketCount: req.TicketCount,
        UnitPrice:   req.UnitPrice,
        ClosesAt:    req.ClosesAt,
    })
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, r)
}

// ListRaffles handles GET /v1/admin/raffles.
func (h *AdminHandler) ListRaffles(c echo.Context) error {
    tid, ok := tenantID(c)
    if !ok {
        return nil
    }
    raffles, err := h.Svc.ListRaffles(c.Request().Context(), tid)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": raffles})
}

// ArchiveRaffle handles POST /v1/admin/raffles/:id/archive.
func (h *AdminHandler) ArchiveRaffle(c echo.Context) error {
    tid, ok := tenantID(c)
    if !ok {
        return nil
    }
    id, ok := pathID(c, "id")
    if !ok {
        return nil
    }
    if err := h.Svc.ArchiveRaffle(c.Request().Context(), tid, id); err != nil {
        return serviceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// SweepRaffle handles POST /v1/admin/raffles/:id/sweep.
func (h *AdminHandler) SweepRaffle(c echo.Context) error {
    tid, ok := tenantID(c)
    if !ok {
        return nil
    }
    id, ok := pathID(c, "id")
    if !ok {
        return nil
    }
    n, err := h.Svc.Sweep(c.Request().Context(), tid, id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"released": n})
}

// ListPurchases handles GET /v1/admin/raffles/:id/purchases.
func (h *AdminHandler) ListPurchases(c echo.Context) error {
    tid, ok := tenantID(c)
    if !ok {
        return nil
    }
    id, ok := pathID(c, "id")
    if !ok {
        return nil
    }
    items, err := h.Svc.ListPurchases(c.Request().Context(), tid, id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// FindHolder handles GET /v1/admin/raffles/:id/tickets/:number.
func (h *AdminHandler) FindHolder(c echo.Context) error {
    tid, ok := tenantID(c)
    if !ok {
        return nil
    }
    id, ok := pathID(c, "id")
    if !ok {
        return nil
    }
    holder, err := h.Svc.FindHolder(c.Request().Context(), tid, id, c.Param("number"))
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, holder)
}

// DeclareWinner handles POST /v1/admin/raffles/:id/winner {"number": "15"}.
func (h *AdminHandler) DeclareWinner(c echo.Context) error {
    tid, ok := tenantID(c)
    if !ok {
        return nil
    }
    id, ok := pathID(c, "id")
    if !ok {
        return nil
    }
    var req struct {
        Number string `json:"number"`
    }
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Number) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "number is required"})
    }
    holder, err := h.Svc.DeclareWinner(c.Request().Context(), tid, id, req.Number)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "number":      holder.Number,
        "buyer_name":  holder.Buyer.Name,
        "buyer_phone": holder.Buyer.Phone,
    })
}

// ListWinners handles GET /v1/admin/winners.
func (h *AdminHandler) ListWinners(c echo.Context) error {
    tid, ok := tenantID(c)
    if !ok {
        return nil
    }
    items, err := h.Svc.ListWinners(c.Request().Context(), tid)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdatePaymentSettings handles PUT /v1/admin/payment-settings.
func (h *AdminHandler) UpdatePaymentSettings(c echo.Context) error {
    tid, ok := tenantID(c)
    if !ok {
        return nil
    }
    var req struct {
        PublicKey       string `json:"public_key"`
        PrivateKey      string `json:"private_key"`
        IntegritySecret string `json:"integrity_secret"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := h.Svc.UpdatePaymentSettings(c.Request().Context(), tid, req.PublicKey, req.PrivateKey, req.IntegritySecret); err != nil {
        return serviceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
