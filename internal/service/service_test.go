package service

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/raffle-reservation/internal/inventory"
    "github.com/iliyamo/raffle-reservation/internal/model"
    "github.com/iliyamo/raffle-reservation/internal/notify"
    "github.com/iliyamo/raffle-reservation/internal/repository/memstore"
)

type clock struct {
    mu sync.Mutex
    t  time.Time
}

func (c *clock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.t
}

func (c *clock) Advance(d time.Duration) {
    c.mu.Lock()
    c.t = c.t.Add(d)
    c.mu.Unlock()
}

type linkFunc func(ctx context.Context, tenant model.Tenant, p model.Purchase, buyer model.Buyer) (string, error)

func (f linkFunc) PaymentLink(ctx context.Context, tenant model.Tenant, p model.Purchase, buyer model.Buyer) (string, error) {
    return f(ctx, tenant, p, buyer)
}

func okLinks() linkFunc {
    return func(_ context.Context, _ model.Tenant, p model.Purchase, _ model.Buyer) (string, error) {
        return "https://checkout.test/p/?reference=" + p.PaymentRef, nil
    }
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, to notify.Contact, s notify.Summary) error {
    return m.Called(ctx, to, s).Error(0)
}

type fixture struct {
    svc      *Service
    store    *memstore.Store
    clock    *clock
    notifier *mockNotifier
    tenant   model.Tenant
    raffle   model.Raffle
}

func newFixture(t *testing.T, links LinkGenerator) *fixture {
    t.Helper()
    f := &fixture{
        store:    memstore.New(),
        clock:    &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
        notifier: &mockNotifier{},
    }
    if links == nil {
        links = okLinks()
    }
    f.svc = New(f.store, links, f.notifier, Options{Now: f.clock.Now, LinkTimeout: 200 * time.Millisecond})

    ctx := context.Background()
    f.tenant = model.Tenant{
        Slug: "don-pepe", Name: "Rifas Don Pepe", WhatsApp: "+573000000000",
        Email: "pepe@example.com", Active: true, PublicKey: "pub_test_1", PrivateKey: "prv_test_1",
    }
    require.NoError(t, f.store.Tx(ctx, func(tx inventory.Tx) error { return tx.CreateTenant(ctx, &f.tenant) }))

    r, err := f.svc.CreateRaffle(ctx, f.tenant.ID, CreateRaffleInput{
        Name:       "Moto 2025",
        PrizeValue: decimal.NewFromInt(8000000),
        DigitWidth: 2,
        UnitPrice:  decimal.NewFromInt(10000),
    })
    require.NoError(t, err)
    f.raffle = r
    return f
}

func (f *fixture) reserve(numbers, nationalID string) (Reservation, error) {
    return f.svc.Reserve(context.Background(), ReserveRequest{
        RaffleID:   f.raffle.ID,
        Numbers:    numbers,
        Name:       "Ana " + nationalID,
        NationalID: nationalID,
        Email:      nationalID + "@example.com",
        Phone:      "+57300" + nationalID,
    })
}

func (f *fixture) ticket(t *testing.T, number string) model.Ticket {
    t.Helper()
    var out model.Ticket
    ctx := context.Background()
    require.NoError(t, f.store.Tx(ctx, func(tx inventory.Tx) error {
        ts, err := inventory.Lookup(ctx, tx, f.raffle.ID, []string{number})
        if err != nil {
            return err
        }
        out = ts[0]
        return nil
    }))
    require.NoError(t, out.Validate())
    return out
}

func (f *fixture) purchase(t *testing.T, id uint64) (model.Purchase, error) {
    t.Helper()
    var p model.Purchase
    ctx := context.Background()
    err := f.store.Tx(ctx, func(tx inventory.Tx) error {
        var err error
        p, err = tx.GetPurchase(ctx, id)
        return err
    })
    return p, err
}

func TestReservePayNotify(t *testing.T) {
    f := newFixture(t, nil)
    f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)

    res, err := f.reserve("05, 12", "1001")
    require.NoError(t, err)
    assert.Equal(t, "purchase_1", res.Reference)
    assert.Equal(t, []string{"05", "12"}, res.Numbers)
    assert.True(t, res.Total.Equal(decimal.NewFromInt(20000)))
    assert.Equal(t, f.clock.Now().Add(30*time.Minute), res.ExpiresAt)
    assert.Contains(t, res.PaymentURL, "purchase_1")

    held := f.ticket(t, "05")
    assert.Equal(t, model.TicketHeld, held.State)
    assert.True(t, held.HeldBy(res.PurchaseID))

    result, err := f.svc.Settle(context.Background(), res.Reference, "APPROVED")
    require.NoError(t, err)
    assert.Equal(t, SettlePaid, result)

    for _, n := range []string{"05", "12"} {
        tk := f.ticket(t, n)
        assert.Equal(t, model.TicketSold, tk.State)
        assert.Nil(t, tk.HoldExpiresAt)
    }
    p, err := f.purchase(t, res.PurchaseID)
    require.NoError(t, err)
    assert.Equal(t, model.PurchasePaid, p.Status)
    require.NotNil(t, p.PaidAt)

    f.notifier.AssertNumberOfCalls(t, "Notify", 2)
    f.notifier.AssertCalled(t, "Notify", mock.Anything,
        mock.MatchedBy(func(c notify.Contact) bool { return c.Email == "1001@example.com" }),
        mock.MatchedBy(func(s notify.Summary) bool { return s.Kind == notify.KindPurchaseConfirmed }))
    f.notifier.AssertCalled(t, "Notify", mock.Anything,
        mock.MatchedBy(func(c notify.Contact) bool { return c.Phone == f.tenant.WhatsApp }),
        mock.MatchedBy(func(s notify.Summary) bool { return s.Kind == notify.KindSaleAlert }))
}

func TestReserveUnavailable(t *testing.T) {
    f := newFixture(t, nil)
    _, err := f.reserve("07", "1")
    require.NoError(t, err)

    _, err = f.reserve("06,07", "2")
    var ue *UnavailableError
    require.ErrorAs(t, err, &ue)
    assert.Equal(t, []string{"07"}, ue.Numbers)
    assert.Equal(t, CodeNumbersUnavailable, ErrorCode(err))
    assert.Equal(t, model.TicketAvailable, f.ticket(t, "06").State)

    // numbers that were never generated are unavailable too
    ctx := context.Background()
    r, err := f.svc.CreateRaffle(ctx, f.tenant.ID, CreateRaffleInput{
        Name: "Sparse", DigitWidth: 3, TicketCount: 5, UnitPrice: decimal.NewFromInt(1000),
    })
    require.NoError(t, err)
    _, grid, err := f.svc.TicketGrid(ctx, r.Slug)
    require.NoError(t, err)
    present := map[string]bool{}
    for _, g := range grid {
        present[g.Number] = true
    }
    absent := "000"
    for i := 0; present[absent]; i++ {
        absent = inventory.Format(i, 3)
    }
    _, err = f.svc.Reserve(ctx, ReserveRequest{RaffleID: r.ID, Numbers: grid[0].Number + "," + absent,
        Name: "Ana", NationalID: "9", Email: "a@b.co", Phone: "3"})
    require.ErrorAs(t, err, &ue)
    assert.Equal(t, []string{absent}, ue.Numbers)

    require.NoError(t, f.svc.ArchiveRaffle(ctx, f.tenant.ID, f.raffle.ID))
    _, err = f.reserve("01", "3")
    assert.ErrorIs(t, err, ErrInvalidRaffle)
}

func TestReserveValidation(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()

    _, err := f.svc.Reserve(ctx, ReserveRequest{RaffleID: f.raffle.ID, Numbers: "01", Name: "Ana", NationalID: "1", Email: "ana", Phone: "3"})
    assert.ErrorIs(t, err, ErrIncompleteFields)

    _, err = f.svc.Reserve(ctx, ReserveRequest{RaffleID: f.raffle.ID, Numbers: " , ", Name: "Ana", NationalID: "1", Email: "a@b.co", Phone: "3"})
    assert.ErrorIs(t, err, ErrIncompleteFields)

    _, err = f.reserve("123", "1")
    assert.ErrorIs(t, err, ErrIncompleteFields)

    _, err = f.svc.Reserve(ctx, ReserveRequest{RaffleID: 999, Numbers: "01", Name: "Ana", NationalID: "1", Email: "a@b.co", Phone: "3"})
    assert.ErrorIs(t, err, ErrInvalidRaffle)
    assert.Equal(t, CodeInvalidRaffle, ErrorCode(err))
}

func TestReserveClosedRaffleArchives(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    closes := f.clock.Now().Add(time.Hour)
    r, err := f.svc.CreateRaffle(ctx, f.tenant.ID, CreateRaffleInput{
        Name: "Cierre", DigitWidth: 3, TicketCount: 10, UnitPrice: decimal.NewFromInt(1000), ClosesAt: &closes,
    })
    require.NoError(t, err)
    f.clock.Advance(2 * time.Hour)

    _, err = f.svc.Reserve(ctx, ReserveRequest{RaffleID: r.ID, Numbers: "001", Name: "Ana", NationalID: "1", Email: "a@b.co", Phone: "3"})
    assert.ErrorIs(t, err, ErrInvalidRaffle)

    raffles, err := f.svc.ListRaffles(ctx, f.tenant.ID)
    require.NoError(t, err)
    for _, x := range raffles {
        if x.ID == r.ID {
            assert.Equal(t, model.RaffleArchived, x.Status)
        }
    }
}

func TestReserveLinkFailureCompensates(t *testing.T) {
    f := newFixture(t, linkFunc(func(context.Context, model.Tenant, model.Purchase, model.Buyer) (string, error) {
        return "", errors.New("invalid public key")
    }))
    _, err := f.reserve("33", "1")
    require.ErrorIs(t, err, ErrPaymentLinkFailed)
    assert.Equal(t, CodePaymentLinkFailed, ErrorCode(err))

    assert.Equal(t, model.TicketAvailable, f.ticket(t, "33").State)
    _, err = f.purchase(t, 1)
    assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestReserveLinkTimeoutCompensates(t *testing.T) {
    f := newFixture(t, linkFunc(func(ctx context.Context, _ model.Tenant, _ model.Purchase, _ model.Buyer) (string, error) {
        time.Sleep(2 * time.Second)
        return "late", nil
    }))
    start := time.Now()
    _, err := f.reserve("44", "1")
    require.ErrorIs(t, err, ErrPaymentLinkFailed)
    assert.Less(t, time.Since(start), time.Second)
    assert.Equal(t, model.TicketAvailable, f.ticket(t, "44").State)
}

func TestConcurrentReserveExactlyOne(t *testing.T) {
    f := newFixture(t, nil)
    const n = 8
    var (
        wg      sync.WaitGroup
        mu      sync.Mutex
        success int
        refused int
    )
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, err := f.reserve("50,51", string(rune('a'+i)))
            mu.Lock()
            defer mu.Unlock()
            if err == nil {
                success++
            } else if errors.Is(err, ErrNumbersUnavailable) {
                refused++
            }
        }(i)
    }
    wg.Wait()
    assert.Equal(t, 1, success)
    assert.Equal(t, n-1, refused)
}

func TestExpiredHoldIsReclaimed(t *testing.T) {
    f := newFixture(t, nil)
    _, err := f.reserve("21", "1")
    require.NoError(t, err)

    f.clock.Advance(29 * time.Minute)
    _, err = f.reserve("21", "2")
    require.ErrorIs(t, err, ErrNumbersUnavailable)

    f.clock.Advance(2 * time.Minute)
    res, err := f.reserve("21", "2")
    require.NoError(t, err)
    assert.True(t, f.ticket(t, "21").HeldBy(res.PurchaseID))
}

func TestTicketGridSweeps(t *testing.T) {
    f := newFixture(t, nil)
    _, err := f.reserve("00", "1")
    require.NoError(t, err)

    _, grid, err := f.svc.TicketGrid(context.Background(), f.raffle.Slug)
    require.NoError(t, err)
    require.Len(t, grid, 100)
    assert.Equal(t, TicketState{Number: "00", State: "held"}, grid[0])

    f.clock.Advance(31 * time.Minute)
    _, grid, err = f.svc.TicketGrid(context.Background(), f.raffle.Slug)
    require.NoError(t, err)
    assert.Equal(t, "available", grid[0].State)

    _, _, err = f.svc.TicketGrid(context.Background(), "nope")
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepOwnRaffleOnly(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    _, err := f.reserve("40,41", "1")
    require.NoError(t, err)

    n, err := f.svc.Sweep(ctx, f.tenant.ID, f.raffle.ID)
    require.NoError(t, err)
    assert.Equal(t, 0, n)

    f.clock.Advance(31 * time.Minute)
    _, err = f.svc.Sweep(ctx, f.tenant.ID+1, f.raffle.ID)
    assert.ErrorIs(t, err, ErrForbidden)
    assert.Equal(t, model.TicketHeld, f.ticket(t, "40").State)

    n, err = f.svc.Sweep(ctx, f.tenant.ID, f.raffle.ID)
    require.NoError(t, err)
    assert.Equal(t, 2, n)
    assert.Equal(t, model.TicketAvailable, f.ticket(t, "41").State)

    _, err = f.svc.Sweep(ctx, f.tenant.ID, 999)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettleIdempotent(t *testing.T) {
    f := newFixture(t, nil)
    f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
    res, err := f.reserve("10", "1")
    require.NoError(t, err)

    for i, want := range []string{SettlePaid, SettleAlreadyPaid, SettleAlreadyPaid} {
        got, err := f.svc.Settle(context.Background(), res.Reference, "APPROVED")
        require.NoError(t, err)
        assert.Equal(t, want, got, "delivery %d", i)
    }
    f.notifier.AssertNumberOfCalls(t, "Notify", 2)

    got, err := f.svc.Settle(context.Background(), res.Reference, "DECLINED")
    require.NoError(t, err)
    assert.Equal(t, SettleFinal, got)
    assert.Equal(t, model.TicketSold, f.ticket(t, "10").State)
}

func TestSettleDeclineRoundTrip(t *testing.T) {
    f := newFixture(t, nil)
    res, err := f.reserve("61,62", "1")
    require.NoError(t, err)

    got, err := f.svc.Settle(context.Background(), res.Reference, "DECLINED")
    require.NoError(t, err)
    assert.Equal(t, SettleReleased, got)
    for _, n := range []string{"61", "62"} {
        assert.Equal(t, model.TicketAvailable, f.ticket(t, n).State)
    }
    p, err := f.purchase(t, res.PurchaseID)
    require.NoError(t, err)
    assert.Equal(t, model.PurchasePending, p.Status)

    // the numbers can be reserved again
    _, err = f.reserve("61", "2")
    require.NoError(t, err)
    f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleIgnoresUnknownAndPending(t *testing.T) {
    f := newFixture(t, nil)
    res, err := f.reserve("70", "1")
    require.NoError(t, err)

    got, err := f.svc.Settle(context.Background(), res.Reference, "PENDING")
    require.NoError(t, err)
    assert.Equal(t, SettleIgnored, got)
    assert.Equal(t, model.TicketHeld, f.ticket(t, "70").State)

    for _, ref := range []string{"purchase_999", "order_1", ""} {
        got, err = f.svc.Settle(context.Background(), ref, "APPROVED")
        require.NoError(t, err)
        assert.Equal(t, SettleUnknown, got)
    }
}

func TestLateApprovalAfterExpiry(t *testing.T) {
    f := newFixture(t, nil)
    f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
    first, err := f.reserve("80", "1")
    require.NoError(t, err)

    // expired, nobody else took it: the approval still sells it
    f.clock.Advance(31 * time.Minute)
    _, err = f.svc.Settle(context.Background(), first.Reference, "APPROVED")
    require.NoError(t, err)
    tk := f.ticket(t, "80")
    assert.Equal(t, model.TicketSold, tk.State)
    assert.Equal(t, first.PurchaseID, *tk.PurchaseID)
}

func TestLateApprovalDoesNotStealTickets(t *testing.T) {
    f := newFixture(t, nil)
    f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
    first, err := f.reserve("81", "1")
    require.NoError(t, err)
    f.clock.Advance(31 * time.Minute)
    second, err := f.reserve("81", "2")
    require.NoError(t, err)

    got, err := f.svc.Settle(context.Background(), first.Reference, "APPROVED")
    require.NoError(t, err)
    assert.Equal(t, SettlePaid, got)
    assert.True(t, f.ticket(t, "81").HeldBy(second.PurchaseID))
}

func TestNotifierFailureDoesNotBlockSettlement(t *testing.T) {
    f := newFixture(t, nil)
    f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
    res, err := f.reserve("90", "1")
    require.NoError(t, err)

    got, err := f.svc.Settle(context.Background(), res.Reference, "APPROVED")
    require.NoError(t, err)
    assert.Equal(t, SettlePaid, got)
    assert.Equal(t, model.TicketSold, f.ticket(t, "90").State)
}

func TestCreateRaffleAndWinner(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)

    r, err := f.svc.CreateRaffle(ctx, f.tenant.ID, CreateRaffleInput{
        Name: "TV Samsung", DigitWidth: 4, TicketCount: 25, UnitPrice: decimal.NewFromInt(5000),
    })
    require.NoError(t, err)
    assert.Equal(t, 25, r.TicketCount)
    assert.Contains(t, r.Slug, "tv-samsung-")
    _, grid, err := f.svc.TicketGrid(ctx, r.Slug)
    require.NoError(t, err)
    assert.Len(t, grid, 25)

    _, err = f.svc.CreateRaffle(ctx, f.tenant.ID, CreateRaffleInput{Name: "x", DigitWidth: 1, TicketCount: 11, UnitPrice: decimal.NewFromInt(1)})
    assert.ErrorIs(t, err, ErrIncompleteFields)

    res, err := f.reserve("15", "1")
    require.NoError(t, err)
    _, err = f.svc.DeclareWinner(ctx, f.tenant.ID, f.raffle.ID, "15")
    assert.ErrorIs(t, err, ErrIncompleteFields, "held tickets cannot win")

    _, err = f.svc.Settle(ctx, res.Reference, "APPROVED")
    require.NoError(t, err)
    _, err = f.svc.DeclareWinner(ctx, f.tenant.ID+1, f.raffle.ID, "15")
    assert.ErrorIs(t, err, ErrForbidden)

    h, err := f.svc.DeclareWinner(ctx, f.tenant.ID, f.raffle.ID, "15")
    require.NoError(t, err)
    require.NotNil(t, h.Buyer)
    assert.Equal(t, "Ana 1", h.Buyer.Name)
    f.notifier.AssertCalled(t, "Notify", mock.Anything, mock.Anything,
        mock.MatchedBy(func(s notify.Summary) bool { return s.Kind == notify.KindWinner }))

    winners, err := f.svc.ListWinners(ctx, f.tenant.ID)
    require.NoError(t, err)
    require.Len(t, winners, 1)
    assert.Equal(t, "15", winners[0].Number)

    holder, err := f.svc.FindHolder(ctx, f.tenant.ID, f.raffle.ID, "15")
    require.NoError(t, err)
    assert.Equal(t, "sold", holder.State)
    assert.Equal(t, res.PurchaseID, holder.PurchaseID)
}

func TestPublicViews(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    _, err := f.reserve("01,02", "1")
    require.NoError(t, err)

    v, err := f.svc.GetRaffle(ctx, f.raffle.Slug)
    require.NoError(t, err)
    assert.Equal(t, 2, v.Held)
    assert.Equal(t, 98, v.Available)
    assert.Equal(t, "don-pepe", v.TenantSlug)

    tenant, raffles, err := f.svc.ListTenantRaffles(ctx, "don-pepe")
    require.NoError(t, err)
    assert.Equal(t, f.tenant.ID, tenant.ID)
    require.Len(t, raffles, 1)

    require.NoError(t, f.svc.ArchiveRaffle(ctx, f.tenant.ID, f.raffle.ID))
    _, raffles, err = f.svc.ListTenantRaffles(ctx, "don-pepe")
    require.NoError(t, err)
    assert.Empty(t, raffles)

    _, _, err = f.svc.ListTenantRaffles(ctx, "nadie")
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePaymentSettings(t *testing.T) {
    f := newFixture(t, nil)
    ctx := context.Background()
    assert.ErrorIs(t, f.svc.UpdatePaymentSettings(ctx, f.tenant.ID, "prv_x", "y", ""), ErrIncompleteFields)
    assert.ErrorIs(t, f.svc.UpdatePaymentSettings(ctx, f.tenant.ID, "pub_x", "", ""), ErrIncompleteFields)
    require.NoError(t, f.svc.UpdatePaymentSettings(ctx, f.tenant.ID, "pub_new", "prv_new", "integ"))
    assert.ErrorIs(t, f.svc.UpdatePaymentSettings(ctx, 999, "pub_new", "prv_new", ""), ErrNotFound)
}
