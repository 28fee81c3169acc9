package notify

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/twilio/twilio-go"
    twclient "github.com/twilio/twilio-go/client"
    openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the part of the Twilio REST API the sender uses.
type messageCreator interface {
    CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// WhatsApp sends messages through the Twilio Messages API.
type WhatsApp struct {
    From string
    api  messageCreator
}

// NewWhatsApp returns nil when the credentials are incomplete.
func NewWhatsApp(sid, token, from string) *WhatsApp {
    if sid == "" || token == "" || from == "" {
        return nil
    }
    client := twilio.NewRestClientWithParams(twilio.ClientParams{Username: sid, Password: token})
    return &WhatsApp{From: whatsappAddress(from), api: client.Api}
}

func (w *WhatsApp) Name() string { return "whatsapp" }

func (w *WhatsApp) Accepts(to Contact) bool { return strings.TrimSpace(to.Phone) != "" }

// whatsappAddress normalizes "300 123", "+57300..." or "whatsapp:+57..."
// to the "whatsapp:" form.  No country code is assumed.
func whatsappAddress(n string) string {
    n = strings.ReplaceAll(strings.TrimSpace(n), " ", "")
    if strings.HasPrefix(n, "whatsapp:") {
        return n
    }
    return "whatsapp:" + n
}

// Send posts one message.  The SDK call takes no context; Fanout bounds it.
func (w *WhatsApp) Send(_ context.Context, to Contact, msg Message) error {
    params := &openapi.CreateMessageParams{}
    params.SetFrom(w.From)
    params.SetTo(whatsappAddress(to.Phone))
    params.SetBody(msg.Body)

    if _, err := w.api.CreateMessage(params); err != nil {
        var apiErr *twclient.TwilioRestError
        if errors.As(err, &apiErr) {
            return fmt.Errorf("twilio %d: %s (code %d)", apiErr.Status, apiErr.Message, apiErr.Code)
        }
        return fmt.Errorf("twilio: %w", err)
    }
    return nil
}
