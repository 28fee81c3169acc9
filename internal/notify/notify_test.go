package notify

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/domodwyer/mailyak/v3"
    tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    twclient "github.com/twilio/twilio-go/client"
    openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

func sampleSummary(kind Kind) Summary {
    return Summary{
        Kind:       kind,
        TenantName: "Rifas Don Pepe",
        RaffleName: "Moto 2025",
        Reference:  "purchase_7",
        Numbers:    []string{"07", "42"},
        Total:      decimal.NewFromInt(20000),
        BuyerName:  "Ana",
        BuyerPhone: "+573001112233",
    }
}

func TestRender(t *testing.T) {
    m := Render(sampleSummary(KindPurchaseConfirmed))
    assert.Contains(t, m.Subject, "Moto 2025")
    assert.Contains(t, m.Body, "07, 42")
    assert.Contains(t, m.Body, "$20000")
    assert.Contains(t, m.Body, "purchase_7")

    m = Render(sampleSummary(KindSaleAlert))
    assert.Contains(t, m.Body, "Ana (+573001112233)")

    m = Render(sampleSummary(KindWinner))
    assert.Contains(t, m.Subject, "Ganaste")
}

type fakeMessages struct {
    got []*openapi.CreateMessageParams
    err error
}

func (f *fakeMessages) CreateMessage(p *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
    f.got = append(f.got, p)
    if f.err != nil {
        return nil, f.err
    }
    sid := "SM1"
    return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestWhatsAppSend(t *testing.T) {
    wa := NewWhatsApp("AC1", "tok", "+14155238886")
    require.NotNil(t, wa)
    api := &fakeMessages{}
    wa.api = api

    err := wa.Send(context.Background(), Contact{Phone: "+57 300 111 2233"}, Message{Body: "hola"})
    require.NoError(t, err)
    require.Len(t, api.got, 1)
    assert.Equal(t, "whatsapp:+14155238886", *api.got[0].From)
    assert.Equal(t, "whatsapp:+573001112233", *api.got[0].To)
    assert.Equal(t, "hola", *api.got[0].Body)
}

func TestWhatsAppError(t *testing.T) {
    wa := NewWhatsApp("AC1", "tok", "whatsapp:+1")
    wa.api = &fakeMessages{err: &twclient.TwilioRestError{Status: 400, Code: 21211, Message: "Invalid 'To' Phone Number"}}

    err := wa.Send(context.Background(), Contact{Phone: "x"}, Message{Body: "hola"})
    require.Error(t, err)
    assert.Contains(t, err.Error(), "21211")
    assert.Contains(t, err.Error(), "Invalid 'To'")

    wa.api = &fakeMessages{err: errors.New("dial tcp: timeout")}
    assert.ErrorContains(t, wa.Send(context.Background(), Contact{Phone: "1"}, Message{}), "timeout")
}

func TestNewWhatsAppIncomplete(t *testing.T) {
    assert.Nil(t, NewWhatsApp("", "tok", "+1"))
}

func TestEmailSend(t *testing.T) {
    e := NewEmail("smtp.example.com", 587, "rifas@example.com", "secret", "")
    require.NotNil(t, e)
    var sent *mailyak.MailYak
    e.send = func(m *mailyak.MailYak) error { sent = m; return nil }

    require.True(t, e.Accepts(Contact{Email: "ana@example.com"}))
    require.False(t, e.Accepts(Contact{Email: "nope"}))
    require.NoError(t, e.Send(context.Background(), Contact{Email: "ana@example.com"}, Message{Subject: "s", Body: "b"}))
    require.NotNil(t, sent)
    assert.Equal(t, "s", sent.GetSubject())
    assert.Equal(t, "rifas@example.com", sent.GetFrom())
}

type fakeBot struct {
    sent []tgbotapi.Chattable
    err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
    f.sent = append(f.sent, c)
    return tgbotapi.Message{}, f.err
}

func TestTelegramSend(t *testing.T) {
    bot := &fakeBot{}
    tg := &Telegram{bot: bot}
    assert.False(t, tg.Accepts(Contact{}))
    require.NoError(t, tg.Send(context.Background(), Contact{TelegramChatID: 99}, Message{Subject: "s", Body: "b"}))
    require.Len(t, bot.sent, 1)
    msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
    require.True(t, ok)
    assert.Equal(t, int64(99), msg.ChatID)
    assert.Equal(t, "s\n\nb", msg.Text)
}

type stubSender struct {
    name   string
    err    error
    delay  time.Duration
    called int
}

func (s *stubSender) Name() string           { return s.name }
func (s *stubSender) Accepts(Contact) bool   { return true }
func (s *stubSender) Send(ctx context.Context, _ Contact, _ Message) error {
    s.called++
    if s.delay > 0 {
        select {
        case <-time.After(s.delay):
        case <-ctx.Done():
            return ctx.Err()
        }
    }
    return s.err
}

func TestFanoutJoinsErrors(t *testing.T) {
    ok := &stubSender{name: "ok"}
    bad := &stubSender{name: "bad", err: errors.New("boom")}
    f := NewFanout(bad, nil, ok)
    assert.Equal(t, []string{"bad", "ok"}, f.Channels())

    err := f.Deliver(context.Background(), Contact{Name: "Ana"}, sampleSummary(KindPurchaseConfirmed))
    require.Error(t, err)
    assert.Contains(t, err.Error(), "bad: boom")
    assert.Equal(t, 1, ok.called)
}

func TestDirectTimeout(t *testing.T) {
    slow := &stubSender{name: "slow", delay: time.Second}
    d := &Direct{Fanout: NewFanout(slow), Timeout: 20 * time.Millisecond}
    err := d.Notify(context.Background(), Contact{}, sampleSummary(KindSaleAlert))
    assert.ErrorIs(t, err, context.DeadlineExceeded)
}
