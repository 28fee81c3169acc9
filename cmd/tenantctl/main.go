// Command tenantctl registers a tenant and its first administrator.
//
//    tenantctl --slug don-pepe --name "Rifas Don Pepe" \
//        --whatsapp +573001112233 --email pepe@example.com \
//        --admin-email admin@example.com --admin-password secret
package main

import (
    "context"
    "fmt"
    "log"
    "os"
    "time"

    "github.com/joho/godotenv"
    "github.com/spf13/pflag"

    "github.com/iliyamo/raffle-reservation/internal/database"
    "github.com/iliyamo/raffle-reservation/internal/inventory"
    "github.com/iliyamo/raffle-reservation/internal/model"
    "github.com/iliyamo/raffle-reservation/internal/repository"
    "github.com/iliyamo/raffle-reservation/internal/utils"
)

func main() {
    var (
        envFile   = pflag.String("env-file", ".env", "dotenv file with the DB_* variables")
        slug      = pflag.String("slug", "", "public tenant slug (derived from --name when empty)")
        name      = pflag.String("name", "", "tenant display name")
        whatsapp  = pflag.String("whatsapp", "", "WhatsApp number receiving sale alerts")
        email     = pflag.String("email", "", "contact email receiving sale alerts")
        chatID    = pflag.Int64("telegram-chat", 0, "Telegram chat receiving sale alerts")
        pubKey    = pflag.String("public-key", "", "gateway public key (pub_...)")
        privKey   = pflag.String("private-key", "", "gateway private key")
        integrity = pflag.String("integrity-secret", "", "gateway integrity secret")
        adminMail = pflag.String("admin-email", "", "administrator login")
        adminPass = pflag.String("admin-password", "", "administrator password")
        cost      = pflag.Int("bcrypt-cost", 10, "bcrypt cost for the administrator password")
    )
    pflag.Parse()
    _ = godotenv.Load(*envFile)

    if *name == "" || *adminMail == "" || *adminPass == "" {
        pflag.Usage()
        os.Exit(2)
    }
    if *slug == "" {
        *slug = utils.Slugify(*name)
    }

    db, err := database.Open(os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"))
    if err != nil {
        log.Fatalf("db connect failed: %v", err)
    }
    defer db.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("db migrate failed: %v", err)
    }
    store := repository.NewStore(db)

    tenant := model.Tenant{
        Slug:            *slug,
        Name:            *name,
        WhatsApp:        *whatsapp,
        Email:           *email,
        TelegramChatID:  *chatID,
        Active:          true,
        PublicKey:       *pubKey,
        PrivateKey:      *privKey,
        IntegritySecret: *integrity,
    }
    if err := store.Tx(ctx, func(tx inventory.Tx) error { return tx.CreateTenant(ctx, &tenant) }); err != nil {
        log.Fatalf("create tenant: %v", err)
    }
    userID, err := store.CreateUser(ctx, tenant.ID, *adminMail, *adminPass, *cost)
    if err != nil {
        log.Fatalf("create admin: %v", err)
    }
    fmt.Printf("tenant %d (%s) created, admin user %d\n", tenant.ID, tenant.Slug, userID)
}
