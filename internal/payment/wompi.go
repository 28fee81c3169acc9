package payment

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "net/url"
    "strconv"
    "strings"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/raffle-reservation/internal/config"
    "github.com/iliyamo/raffle-reservation/internal/model"
)

// DefaultCheckoutBase is the hosted checkout page.  Only the /p/ flavour
// accepts a signed amount, so any other base falls back to it.
const DefaultCheckoutBase = "https://checkout.wompi.co/p/"

var (
    ErrInvalidPublicKey  = errors.New("invalid public key: pub_test_* or pub_prod_* required")
    ErrMissingPrivateKey = errors.New("missing private key")
    ErrInvalidAmount     = errors.New("amount in cents must be > 0")
)

// Credentials are the per-tenant keys issued by the gateway.
type Credentials struct {
    PublicKey       string
    PrivateKey      string
    IntegritySecret string
}

// CheckoutRequest describes one checkout link.
type CheckoutRequest struct {
    Reference     string
    AmountInCents int64
    Currency      string
    CustomerEmail string
    RedirectURL   string
}

// Wompi builds checkout links.  It makes no network calls; the gateway
// only learns about the purchase when the customer opens the link.
type Wompi struct {
    base        string
    currency    string
    redirectURL string
}

// NewWompi returns a link builder configured from cfg.
func NewWompi(cfg config.PaymentConfig) *Wompi {
    base := strings.TrimSpace(cfg.CheckoutURL)
    if base == "" {
        base = DefaultCheckoutBase
    }
    if !strings.HasSuffix(base, "/") {
        base += "/"
    }
    if !strings.HasSuffix(base, "/p/") {
        base = DefaultCheckoutBase
    }
    currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
    if currency == "" {
        currency = "COP"
    }
    return &Wompi{base: base, currency: currency, redirectURL: strings.TrimSpace(cfg.RedirectURL)}
}

// IntegritySignature is the hex SHA-256 of reference, amount, currency and
// secret concatenated in that order.
func IntegritySignature(reference string, amountInCents int64, currency, secret string) string {
    sum := sha256.Sum256([]byte(reference + strconv.FormatInt(amountInCents, 10) + currency + secret))
    return hex.EncodeToString(sum[:])
}

// AmountInCents converts a decimal amount to whole cents, rounding half away
// from zero.
func AmountInCents(amount decimal.Decimal) int64 {
    return amount.Shift(2).Round(0).IntPart()
}

// CheckoutURL validates the credentials and returns the signed link.
func (w *Wompi) CheckoutURL(ctx context.Context, creds Credentials, req CheckoutRequest) (string, error) {
    if err := ctx.Err(); err != nil {
        return "", err
    }
    if !strings.HasPrefix(creds.PublicKey, "pub_") {
        return "", ErrInvalidPublicKey
    }
    if strings.TrimSpace(creds.PrivateKey) == "" {
        return "", ErrMissingPrivateKey
    }
    if req.AmountInCents <= 0 {
        return "", ErrInvalidAmount
    }
    reference := strings.TrimSpace(req.Reference)
    currency := strings.ToUpper(strings.TrimSpace(req.Currency))
    if currency == "" {
        currency = w.currency
    }
    redirect := strings.TrimSpace(req.RedirectURL)
    if redirect == "" {
        redirect = w.redirectURL
    }

    q := url.Values{}
    q.Set("public-key", creds.PublicKey)
    q.Set("currency", currency)
    q.Set("amount-in-cents", strconv.FormatInt(req.AmountInCents, 10))
    q.Set("reference", reference)
    if redirect != "" {
        q.Set("redirect-url", redirect)
    }
    if email := strings.TrimSpace(req.CustomerEmail); email != "" {
        q.Set("customer-data.email", email)
    }
    if secret := strings.TrimSpace(creds.IntegritySecret); secret != "" {
        q.Set("signature:integrity", IntegritySignature(reference, req.AmountInCents, currency, secret))
    }
    return w.base + "?" + q.Encode(), nil
}

// PaymentLink builds the checkout link for a pending purchase using the
// tenant's credentials.
func (w *Wompi) PaymentLink(ctx context.Context, tenant model.Tenant, p model.Purchase, buyer model.Buyer) (string, error) {
    link, err := w.CheckoutURL(ctx, Credentials{
        PublicKey:       tenant.PublicKey,
        PrivateKey:      tenant.PrivateKey,
        IntegritySecret: tenant.IntegritySecret,
    }, CheckoutRequest{
        Reference:     p.PaymentRef,
        AmountInCents: AmountInCents(p.Total),
        CustomerEmail: buyer.Email,
    })
    if err != nil {
        return "", fmt.Errorf("tenant %s: %w", tenant.Slug, err)
    }
    return link, nil
}
