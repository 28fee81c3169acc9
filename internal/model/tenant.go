package model

import "time"

// Tenant is a business operating raffles on the platform.  Its slug is the
// public identifier used in URLs; the payment fields hold the credentials
// the gateway issued to that business.
//
// Fields:
//  ID              – primary key identifier.
//  Slug            – unique public identifier.
//  Name            – display name.
//  WhatsApp        – WhatsApp number receiving sale alerts.
//  Email           – contact email receiving sale alerts.
//  TelegramChatID  – optional Telegram chat receiving sale alerts (0 = none).
//  Active          – inactive tenants cannot sell tickets.
//  PublicKey       – gateway public key ("pub_...").
//  PrivateKey      – gateway private key.
//  IntegritySecret – secret used to sign checkout URLs.
type Tenant struct {
    ID              uint64    `json:"id"`
    Slug            string    `json:"slug"`
    Name            string    `json:"name"`
    WhatsApp        string    `json:"whatsapp"`
    Email           string    `json:"email"`
    TelegramChatID  int64     `json:"telegram_chat_id,omitempty"`
    Active          bool      `json:"active"`
    PublicKey       string    `json:"-"`
    PrivateKey      string    `json:"-"`
    IntegritySecret string    `json:"-"`
    CreatedAt       time.Time `json:"created_at"`
}

// HasPaymentCredentials reports whether the tenant can generate checkout links.
func (t Tenant) HasPaymentCredentials() bool {
    return t.PublicKey != "" && t.PrivateKey != ""
}
