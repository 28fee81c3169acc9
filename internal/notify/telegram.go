package notify

import (
    "context"
    "log"

    tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type botAPI interface {
    Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends messages to a chat through a bot.  Only tenants register
// a chat ID, so in practice it carries sale alerts.
type Telegram struct {
    bot botAPI
}

// NewTelegram authorizes the bot.  It returns nil when token is empty or
// the bot cannot be authorized.
func NewTelegram(token string) *Telegram {
    if token == "" {
        return nil
    }
    bot, err := tgbotapi.NewBotAPI(token)
    if err != nil {
        log.Printf("notify: telegram bot authorization failed: %v", err)
        return nil
    }
    log.Printf("notify: telegram bot authorized as %s", bot.Self.UserName)
    return &Telegram{bot: bot}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Accepts(to Contact) bool { return to.TelegramChatID != 0 }

func (t *Telegram) Send(_ context.Context, to Contact, msg Message) error {
    _, err := t.bot.Send(tgbotapi.NewMessage(to.TelegramChatID, msg.Subject+"\n\n"+msg.Body))
    return err
}
