package handler

import (
    "errors"
    "io"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-reservation/internal/payment"
    "github.com/iliyamo/raffle-reservation/internal/service"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives payment gateway events.
type WebhookHandler struct {
    Svc *service.Service
    // EventsSecret enables checksum verification when set.
    EventsSecret string
}

func NewWebhookHandler(svc *service.Service, eventsSecret string) *WebhookHandler {
    return &WebhookHandler{Svc: svc, EventsSecret: eventsSecret}
}

// Payment handles POST /v1/webhooks/payments.  Every parseable event is
// acknowledged with 200 so the gateway stops retrying; anomalies are
// logged.
func (h *WebhookHandler) Payment(c echo.Context) error {
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
    }
    ev, err := payment.ParseEvent(body)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
    }
    ack := echo.Map{"ok": true}

    if h.EventsSecret != "" {
        if err := payment.VerifyChecksum(body, h.EventsSecret); err != nil {
            if errors.Is(err, payment.ErrChecksumMismatch) {
                log.Printf("webhook: %s checksum mismatch, event ignored", ev.TransactionReference())
            } else {
                log.Printf("webhook: checksum check failed: %v", err)
            }
            return c.JSON(http.StatusOK, ack)
        }
    }

    ref, status := ev.TransactionReference(), ev.TransactionStatus()
    result, err := h.Svc.Settle(c.Request().Context(), ref, status)
    if err != nil {
        log.Printf("webhook: settle %s %s: %v", ref, status, err)
        return c.JSON(http.StatusOK, ack)
    }
    log.Printf("webhook: %s %s -> %s", ref, status, result)
    return c.JSON(http.StatusOK, ack)
}
