// Package notify renders purchase outcomes into short messages and delivers
// them over WhatsApp, email and Telegram.  Delivery is best effort: callers
// log failures and carry on.
package notify

import (
    "fmt"
    "strings"

    "github.com/shopspring/decimal"
)

// Kind identifies which message a Summary renders to.
type Kind string

const (
    KindPurchaseConfirmed Kind = "purchase_confirmed" // to the buyer
    KindSaleAlert         Kind = "sale_alert"         // to the tenant
    KindWinner            Kind = "winner"             // to the winning buyer
)

// Contact is where a message goes.  Empty fields are channels to skip.
type Contact struct {
    Name           string `json:"name"`
    Phone          string `json:"phone,omitempty"`
    Email          string `json:"email,omitempty"`
    TelegramChatID int64  `json:"telegram_chat_id,omitempty"`
}

// Summary carries the facts of an outcome, independent of channel.
type Summary struct {
    Kind       Kind            `json:"kind"`
    TenantName string          `json:"tenant_name"`
    RaffleName string          `json:"raffle_name"`
    Reference  string          `json:"reference,omitempty"`
    Numbers    []string        `json:"numbers"`
    Total      decimal.Decimal `json:"total"`
    BuyerName  string          `json:"buyer_name,omitempty"`
    BuyerPhone string          `json:"buyer_phone,omitempty"`
}

// Message is a rendered notification.
type Message struct {
    Subject string
    Body    string
}

// Render turns a summary into the text sent on every channel.
func Render(s Summary) Message {
    nums := strings.Join(s.Numbers, ", ")
    switch s.Kind {
    case KindSaleAlert:
        return Message{
            Subject: fmt.Sprintf("Nueva venta en %s", s.RaffleName),
            Body: fmt.Sprintf("Venta confirmada en %s.\nComprador: %s (%s)\nNúmeros: %s\nTotal: $%s\nReferencia: %s",
                s.RaffleName, s.BuyerName, s.BuyerPhone, nums, s.Total.StringFixed(0), s.Reference),
        }
    case KindWinner:
        return Message{
            Subject: fmt.Sprintf("¡Ganaste la rifa %s!", s.RaffleName),
            Body: fmt.Sprintf("¡Felicidades %s! Tu número %s ganó la rifa %s de %s. Pronto te contactaremos.",
                s.BuyerName, nums, s.RaffleName, s.TenantName),
        }
    default:
        return Message{
            Subject: fmt.Sprintf("Pago confirmado - %s", s.RaffleName),
            Body: fmt.Sprintf("Hola %s, tu pago fue aprobado.\nRifa: %s (%s)\nNúmeros: %s\nTotal: $%s\nReferencia: %s",
                s.BuyerName, s.RaffleName, s.TenantName, nums, s.Total.StringFixed(0), s.Reference),
        }
    }
}
