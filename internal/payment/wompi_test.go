package payment

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "net/url"
    "strings"
    "testing"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/raffle-reservation/internal/config"
)

func TestCheckoutURL_SignsAmount(t *testing.T) {
    w := NewWompi(config.PaymentConfig{Currency: "cop", RedirectURL: "https://shop.test/thanks"})
    link, err := w.CheckoutURL(context.Background(),
        Credentials{PublicKey: "pub_test_abc", PrivateKey: "prv_test_abc", IntegritySecret: "test_integrity"},
        CheckoutRequest{Reference: "purchase_7", AmountInCents: 200000, CustomerEmail: "ana@example.com"})
    require.NoError(t, err)
    require.True(t, strings.HasPrefix(link, DefaultCheckoutBase+"?"))

    u, err := url.Parse(link)
    require.NoError(t, err)
    q := u.Query()
    assert.Equal(t, "pub_test_abc", q.Get("public-key"))
    assert.Equal(t, "COP", q.Get("currency"))
    assert.Equal(t, "200000", q.Get("amount-in-cents"))
    assert.Equal(t, "purchase_7", q.Get("reference"))
    assert.Equal(t, "https://shop.test/thanks", q.Get("redirect-url"))
    assert.Equal(t, "ana@example.com", q.Get("customer-data.email"))

    sum := sha256.Sum256([]byte("purchase_7200000COPtest_integrity"))
    assert.Equal(t, hex.EncodeToString(sum[:]), q.Get("signature:integrity"))
}

func TestCheckoutURL_NoSecretNoSignature(t *testing.T) {
    w := NewWompi(config.PaymentConfig{CheckoutURL: "https://checkout.wompi.co/l/"})
    link, err := w.CheckoutURL(context.Background(),
        Credentials{PublicKey: "pub_prod_x", PrivateKey: "p"},
        CheckoutRequest{Reference: "purchase_1", AmountInCents: 100})
    require.NoError(t, err)
    assert.True(t, strings.HasPrefix(link, DefaultCheckoutBase))
    assert.NotContains(t, link, "signature")
    assert.NotContains(t, link, "redirect-url")
}

func TestCheckoutURL_Validation(t *testing.T) {
    w := NewWompi(config.PaymentConfig{})
    ctx := context.Background()
    _, err := w.CheckoutURL(ctx, Credentials{PublicKey: "key", PrivateKey: "p"}, CheckoutRequest{AmountInCents: 1})
    assert.ErrorIs(t, err, ErrInvalidPublicKey)
    _, err = w.CheckoutURL(ctx, Credentials{PublicKey: "pub_x"}, CheckoutRequest{AmountInCents: 1})
    assert.ErrorIs(t, err, ErrMissingPrivateKey)
    _, err = w.CheckoutURL(ctx, Credentials{PublicKey: "pub_x", PrivateKey: "p"}, CheckoutRequest{})
    assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAmountInCents(t *testing.T) {
    assert.EqualValues(t, 200000, AmountInCents(decimal.NewFromInt(2000)))
    assert.EqualValues(t, 1235, AmountInCents(decimal.RequireFromString("12.345")))
}

func TestReference(t *testing.T) {
    assert.Equal(t, "purchase_42", Reference(42))
    id, ok := ParseReference(" purchase_42 ")
    assert.True(t, ok)
    assert.EqualValues(t, 42, id)
    for _, bad := range []string{"", "purchase_", "purchase_x", "order_4", "purchase_0"} {
        _, ok := ParseReference(bad)
        assert.False(t, ok, bad)
    }
}

func TestClassify(t *testing.T) {
    assert.Equal(t, OutcomeApproved, Classify("approved"))
    for _, s := range []string{"DECLINED", "VOIDED", "ERROR"} {
        assert.Equal(t, OutcomeFailed, Classify(s))
    }
    assert.Equal(t, OutcomeNone, Classify("PENDING"))
    assert.Equal(t, OutcomeNone, Classify("SOMETHING"))
}
