package config

import (
    "strings"
    "time"
)

// PaymentConfig configures the hosted checkout gateway.  Tenant keys live in
// the database; these settings are platform wide.
type PaymentConfig struct {
    CheckoutURL  string        // WOMPI_CHECKOUT_URL, must end in /p/
    RedirectURL  string        // WOMPI_REDIRECT_URL, optional
    Currency     string        // WOMPI_CURRENCY, default COP
    EventsSecret string        // WOMPI_EVENTS_SECRET; empty disables checksum verification
    LinkTimeout  time.Duration // PAYMENT_LINK_TIMEOUT
}

func LoadPaymentConfig() PaymentConfig {
    cfg := PaymentConfig{
        CheckoutURL:  envStr("WOMPI_CHECKOUT_URL", "https://checkout.wompi.co/p/"),
        RedirectURL:  envStr("WOMPI_REDIRECT_URL", ""),
        Currency:     strings.ToUpper(envStr("WOMPI_CURRENCY", "COP")),
        EventsSecret: envStr("WOMPI_EVENTS_SECRET", ""),
        LinkTimeout:  envDur("PAYMENT_LINK_TIMEOUT", 10*time.Second),
    }
    if cfg.LinkTimeout <= 0 { cfg.LinkTimeout = 10 * time.Second }
    return cfg
}
