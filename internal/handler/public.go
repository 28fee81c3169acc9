package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-reservation/internal/service"
)

// PublicHandler serves the unauthenticated raffle pages.
type PublicHandler struct {
    Svc *service.Service
}

func NewPublicHandler(svc *service.Service) *PublicHandler {
    return &PublicHandler{Svc: svc}
}

// GetRaffle handles GET /v1/raffles/:slug.
func (h *PublicHandler) GetRaffle(c echo.Context) error {
    v, err := h.Svc.GetRaffle(c.Request().Context(), c.Param("slug"))
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, v)
}

// GetTickets handles GET /v1/raffles/:slug/tickets.  Expired holds are
// reclaimed before the grid is read.
func (h *PublicHandler) GetTickets(c echo.Context) error {
    r, grid, err := h.Svc.TicketGrid(c.Request().Context(), c.Param("slug"))
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "raffle_id":   r.ID,
        "digit_width": r.DigitWidth,
        "items":       grid,
    })
}

// ListTenantRaffles handles GET /v1/tenants/:slug/raffles.
func (h *PublicHandler) ListTenantRaffles(c echo.Context) error {
    tenant, raffles, err := h.Svc.ListTenantRaffles(c.Request().Context(), c.Param("slug"))
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "tenant": echo.Map{"slug": tenant.Slug, "name": tenant.Name, "whatsapp": tenant.WhatsApp},
        "items":  raffles,
    })
}
