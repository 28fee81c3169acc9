package main

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/shopspring/decimal"
    "github.com/spf13/pflag"

    "github.com/iliyamo/raffle-reservation/internal/config"
    "github.com/iliyamo/raffle-reservation/internal/database"
    "github.com/iliyamo/raffle-reservation/internal/handler"
    "github.com/iliyamo/raffle-reservation/internal/inventory"
    "github.com/iliyamo/raffle-reservation/internal/middleware"
    "github.com/iliyamo/raffle-reservation/internal/model"
    "github.com/iliyamo/raffle-reservation/internal/notify"
    "github.com/iliyamo/raffle-reservation/internal/payment"
    "github.com/iliyamo/raffle-reservation/internal/queue"
    "github.com/iliyamo/raffle-reservation/internal/repository"
    "github.com/iliyamo/raffle-reservation/internal/repository/memstore"
    "github.com/iliyamo/raffle-reservation/internal/router"
    "github.com/iliyamo/raffle-reservation/internal/service"
)

// backend is what the server needs from a store driver.
type backend interface {
    inventory.Store
    inventory.Accounts
}

func main() {
    envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
    seedDemo := pflag.Bool("seed-demo", false, "create a demo tenant, admin and raffle (memory driver only)")
    pflag.Parse()

    if err := godotenv.Load(*envFile); err != nil {
        log.Printf("env file %s not loaded: %v", *envFile, err)
    }
    cfg := config.Load()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    store, closeStore := openStore(ctx, cfg)
    defer closeStore()

    if *seedDemo {
        if cfg.StoreDriver != config.DriverMemory {
            log.Fatal("--seed-demo requires STORE_DRIVER=memory")
        }
        seed(ctx, store, cfg.BcryptCost)
    }

    rdb := config.NewRedisClient()
    if rdb != nil {
        defer rdb.Close()
    }

    notifier, closeNotifier := buildNotifier(ctx, cfg)
    defer closeNotifier()
    svc := service.New(store, payment.NewWompi(cfg.Payment), notifier, service.Options{
        HoldDuration: cfg.HoldDuration,
        LinkTimeout:  cfg.Payment.LinkTimeout,
    })

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Logger())
    e.Use(echomw.Recover())

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, store), cfg.JWTSecret)
    router.RegisterPublic(e, handler.NewPublicHandler(svc), middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
    router.RegisterCheckout(e,
        handler.NewReservationHandler(svc),
        handler.NewWebhookHandler(svc, cfg.Payment.EventsSecret),
        middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    router.RegisterAdmin(e, handler.NewAdminHandler(svc), cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s, store=%s, notify=%s)", addr, cfg.Env, cfg.StoreDriver, cfg.Notify.Mode)

    go func() {
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}

func openStore(ctx context.Context, cfg config.Config) (backend, func()) {
    if cfg.StoreDriver == config.DriverMemory {
        return memstore.New(), func() {}
    }
    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("db connect failed: %v", err)
    }
    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("db migrate failed: %v", err)
    }
    return repository.NewStore(db), func() { _ = db.Close() }
}

// buildNotifier picks the delivery path.  In queue mode the consumer runs
// in this process until ctx is cancelled.
func buildNotifier(ctx context.Context, cfg config.Config) (service.Notifier, func()) {
    n := cfg.Notify
    switch n.Mode {
    case config.NotifyOff:
        return notify.Log{}, func() {}
    case config.NotifyDirect:
        return &notify.Direct{Fanout: senders(n), Timeout: n.Timeout}, func() {}
    }
    consumer := &queue.Consumer{URL: cfg.AMQPURL, Queue: n.Queue, Out: senders(n), Timeout: n.Timeout}
    go func() {
        if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
            log.Printf("notification consumer stopped: %v", err)
        }
    }()
    pub := queue.NewPublisher(cfg.AMQPURL, n.Queue, n.Timeout)
    return pub, pub.Close
}

func senders(n config.NotifyConfig) *notify.Fanout {
    var list []notify.Sender
    if s := notify.NewWhatsApp(n.TwilioAccountSID, n.TwilioAuthToken, n.TwilioFrom); s != nil {
        list = append(list, s)
    }
    if s := notify.NewEmail(n.SMTPHost, n.SMTPPort, n.SMTPUser, n.SMTPPassword, n.EmailFrom); s != nil {
        list = append(list, s)
    }
    if s := notify.NewTelegram(n.TelegramToken); s != nil {
        list = append(list, s)
    }
    f := notify.NewFanout(list...)
    log.Printf("notification channels: %v", f.Channels())
    return f
}

// seed creates tenant "demo" with admin demo@example.com / demo-password
// and a two-digit raffle.
func seed(ctx context.Context, store backend, cost int) {
    tenant := model.Tenant{
        Slug: "demo", Name: "Rifas Demo", Active: true,
        WhatsApp: "+573000000000", Email: "demo@example.com",
        PublicKey: "pub_test_demo", PrivateKey: "prv_test_demo", IntegritySecret: "test_integrity_demo",
    }
    if err := store.Tx(ctx, func(tx inventory.Tx) error { return tx.CreateTenant(ctx, &tenant) }); err != nil {
        log.Fatalf("seed tenant: %v", err)
    }
    if _, err := store.CreateUser(ctx, tenant.ID, "demo@example.com", "demo-password", cost); err != nil {
        log.Fatalf("seed admin: %v", err)
    }
    svc := service.New(store, nil, notify.Log{}, service.Options{})
    r, err := svc.CreateRaffle(ctx, tenant.ID, service.CreateRaffleInput{
        Name:       "Rifa de la moto",
        PrizeValue: decimal.NewFromInt(8_000_000),
        DigitWidth: 2,
        UnitPrice:  decimal.NewFromInt(10_000),
    })
    if err != nil {
        log.Fatalf("seed raffle: %v", err)
    }
    log.Printf("seeded tenant %q, raffle %q (id %d)", tenant.Slug, r.Slug, r.ID)
}
