package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-reservation/internal/handler"
    "github.com/iliyamo/raffle-reservation/internal/middleware"
    "github.com/iliyamo/raffle-reservation/internal/model"
)

// RegisterAdmin registers the tenant back office under /v1/admin.  All
// routes require a valid JWT with the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
    g := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )

    // ---- Raffles ----
    g.POST("/raffles", a.CreateRaffle)
    g.GET("/raffles", a.ListRaffles)
    g.POST("/raffles/:id/archive", a.ArchiveRaffle)
    g.POST("/raffles/:id/sweep", a.SweepRaffle)

    // ---- Sales ----
    g.GET("/raffles/:id/purchases", a.ListPurchases)
    g.GET("/raffles/:id/tickets/:number", a.FindHolder)

    // ---- Results ----
    g.POST("/raffles/:id/winner", a.DeclareWinner)
    g.GET("/winners", a.ListWinners)

    g.PUT("/payment-settings", a.UpdatePaymentSettings)
}
