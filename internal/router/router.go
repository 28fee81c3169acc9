// Package router maps URLs to handlers and attaches the middleware each
// group needs.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/iliyamo/raffle-reservation/internal/handler"
    "github.com/iliyamo/raffle-reservation/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// protected /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    g.POST("/logout", a.Logout)

    e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the raffle pages.  Listings go through the
// response cache; the ticket grid never does, since it sweeps expired
// holds on every read.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
    e.GET("/v1/tenants/:slug/raffles", p.ListTenantRaffles, cache)
    e.GET("/v1/raffles/:slug", p.GetRaffle, cache)
    e.GET("/v1/raffles/:slug/tickets", p.GetTickets)
}

// RegisterCheckout registers reservation creation, which is rate limited,
// and the payment webhook.
func RegisterCheckout(e *echo.Echo, r *handler.ReservationHandler, w *handler.WebhookHandler, limiter echo.MiddlewareFunc) {
    e.POST("/v1/reservations", r.Create, limiter)
    e.POST("/v1/webhooks/payments", w.Payment)
}
