package config

import (
    "strings"
    "time"
)

// Notification delivery modes.
const (
    NotifyQueue  = "queue"  // publish to RabbitMQ, delivered by the consumer
    NotifyDirect = "direct" // deliver in-process
    NotifyOff    = "off"    // log only
)

// NotifyConfig configures buyer and tenant notifications.  A channel whose
// credentials are empty is skipped.
type NotifyConfig struct {
    Mode    string
    Timeout time.Duration
    Queue   string

    TwilioAccountSID string
    TwilioAuthToken  string
    TwilioFrom       string // WhatsApp sender, "whatsapp:+1415..." or bare number

    SMTPHost     string
    SMTPPort     int
    SMTPUser     string
    SMTPPassword string
    EmailFrom    string

    TelegramToken string
}

func LoadNotifyConfig() NotifyConfig {
    cfg := NotifyConfig{
        Mode:             strings.ToLower(envStr("NOTIFY_MODE", NotifyQueue)),
        Timeout:          envDur("NOTIFY_TIMEOUT", 10*time.Second),
        Queue:            envStr("NOTIFY_QUEUE", "raffle.notifications"),
        TwilioAccountSID: envStr("TWILIO_ACCOUNT_SID", ""),
        TwilioAuthToken:  envStr("TWILIO_AUTH_TOKEN", ""),
        TwilioFrom:       envStr("TWILIO_PHONE", ""),
        SMTPHost:         envStr("SMTP_HOST", "smtp.gmail.com"),
        SMTPPort:         envInt("SMTP_PORT", 587),
        SMTPUser:         envStr("EMAIL_USER", ""),
        SMTPPassword:     envStr("EMAIL_PASSWORD", ""),
        EmailFrom:        envStr("EMAIL_FROM", ""),
        TelegramToken:    envStr("TELEGRAM_TOKEN", ""),
    }
    switch cfg.Mode {
    case NotifyQueue, NotifyDirect, NotifyOff:
    default:
        cfg.Mode = NotifyQueue
    }
    if cfg.Timeout <= 0 { cfg.Timeout = 10 * time.Second }
    if cfg.EmailFrom == "" { cfg.EmailFrom = cfg.SMTPUser }
    return cfg
}
