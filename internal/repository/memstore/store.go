// Package memstore is an in-memory implementation of the inventory store.
// A single mutex serializes transactions, so LockRaffle never blocks and
// every transaction sees a consistent snapshot.  A failed transaction
// restores the state captured when it began.
package memstore

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/raffle-reservation/internal/inventory"
    "github.com/iliyamo/raffle-reservation/internal/model"
    "github.com/iliyamo/raffle-reservation/internal/utils"
)

type tokenRow struct {
    userID    uint64
    expiresAt time.Time
    revoked   bool
}

type state struct {
    seq       map[string]uint64
    tenants   map[uint64]model.Tenant
    raffles   map[uint64]model.Raffle
    tickets   map[uint64]map[string]model.Ticket
    buyers    map[uint64]model.Buyer
    purchases map[uint64]model.Purchase
    users     map[uint64]model.TenantUser
    tokens    map[string]tokenRow
}

func newState() *state {
    return &state{
        seq:       map[string]uint64{},
        tenants:   map[uint64]model.Tenant{},
        raffles:   map[uint64]model.Raffle{},
        tickets:   map[uint64]map[string]model.Ticket{},
        buyers:    map[uint64]model.Buyer{},
        purchases: map[uint64]model.Purchase{},
        users:     map[uint64]model.TenantUser{},
        tokens:    map[string]tokenRow{},
    }
}

func (s *state) next(table string) uint64 {
    s.seq[table]++
    return s.seq[table]
}

func (s *state) clone() *state {
    c := newState()
    for k, v := range s.seq {
        c.seq[k] = v
    }
    for k, v := range s.tenants {
        c.tenants[k] = v
    }
    for k, v := range s.raffles {
        c.raffles[k] = v
    }
    for rid, m := range s.tickets {
        cm := make(map[string]model.Ticket, len(m))
        for n, t := range m {
            cm[n] = t
        }
        c.tickets[rid] = cm
    }
    for k, v := range s.buyers {
        c.buyers[k] = v
    }
    for k, v := range s.purchases {
        v.Numbers = append([]string(nil), v.Numbers...)
        c.purchases[k] = v
    }
    for k, v := range s.users {
        c.users[k] = v
    }
    for k, v := range s.tokens {
        c.tokens[k] = v
    }
    return c
}

// Store is safe for concurrent use.
type Store struct {
    mu sync.Mutex
    st *state
}

// New returns an empty store.
func New() *Store { return &Store{st: newState()} }

// Tx implements inventory.Store.
func (s *Store) Tx(ctx context.Context, fn func(tx inventory.Tx) error) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    snap := s.st.clone()
    if err := fn(&tx{st: s.st}); err != nil {
        s.st = snap
        return err
    }
    return nil
}

type tx struct{ st *state }

// ----- raffles -----

func (t *tx) LockRaffle(ctx context.Context, raffleID uint64) (model.Raffle, error) {
    return t.GetRaffle(ctx, raffleID)
}

func (t *tx) GetRaffle(_ context.Context, raffleID uint64) (model.Raffle, error) {
    r, ok := t.st.raffles[raffleID]
    if !ok {
        return model.Raffle{}, inventory.ErrNotFound
    }
    return r, nil
}

func (t *tx) GetRaffleBySlug(_ context.Context, slug string) (model.Raffle, error) {
    for _, r := range t.st.raffles {
        if r.Slug == slug {
            return r, nil
        }
    }
    return model.Raffle{}, inventory.ErrNotFound
}

func (t *tx) ListRaffles(_ context.Context, tenantID uint64, activeOnly bool) ([]model.Raffle, error) {
    var out []model.Raffle
    for _, r := range t.st.raffles {
        if r.TenantID != tenantID || (activeOnly && r.Status != model.RaffleActive) {
            continue
        }
        out = append(out, r)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out, nil
}

func (t *tx) CreateRaffle(_ context.Context, r *model.Raffle) error {
    for _, existing := range t.st.raffles {
        if existing.Slug == r.Slug {
            return inventory.ErrDuplicate
        }
    }
    r.ID = t.st.next("raffles")
    if r.CreatedAt.IsZero() {
        r.CreatedAt = time.Now().UTC()
    }
    t.st.raffles[r.ID] = *r
    return nil
}

func (t *tx) SetRaffleStatus(_ context.Context, raffleID uint64, status string) error {
    r, ok := t.st.raffles[raffleID]
    if !ok {
        return inventory.ErrNotFound
    }
    r.Status = status
    t.st.raffles[raffleID] = r
    return nil
}

func (t *tx) SetWinningNumber(_ context.Context, raffleID uint64, number string) error {
    r, ok := t.st.raffles[raffleID]
    if !ok {
        return inventory.ErrNotFound
    }
    r.WinningNumber = &number
    t.st.raffles[raffleID] = r
    return nil
}

// ----- tickets -----

func (t *tx) CreateTickets(_ context.Context, raffleID uint64, numbers []string) error {
    m := t.st.tickets[raffleID]
    if m == nil {
        m = make(map[string]model.Ticket, len(numbers))
        t.st.tickets[raffleID] = m
    }
    for _, n := range numbers {
        if _, dup := m[n]; dup {
            return inventory.ErrDuplicate
        }
        m[n] = model.Ticket{RaffleID: raffleID, Number: n, State: model.TicketAvailable}
    }
    return nil
}

func (t *tx) ExpireHolds(_ context.Context, raffleID uint64, now time.Time) ([]string, error) {
    var out []string
    for n, tk := range t.st.tickets[raffleID] {
        if tk.State == model.TicketHeld && tk.HoldExpiresAt != nil && !tk.HoldExpiresAt.After(now) {
            t.st.tickets[raffleID][n] = available(tk)
            out = append(out, n)
        }
    }
    sort.Strings(out)
    return out, nil
}

func (t *tx) GetTickets(_ context.Context, raffleID uint64, numbers []string) ([]model.Ticket, error) {
    var out []model.Ticket
    for _, n := range numbers {
        if tk, ok := t.st.tickets[raffleID][n]; ok {
            out = append(out, tk)
        }
    }
    return out, nil
}

func (t *tx) ListTickets(_ context.Context, raffleID uint64) ([]model.Ticket, error) {
    out := make([]model.Ticket, 0, len(t.st.tickets[raffleID]))
    for _, tk := range t.st.tickets[raffleID] {
        out = append(out, tk)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
    return out, nil
}

func (t *tx) HoldTickets(_ context.Context, raffleID uint64, numbers []string, buyerID, purchaseID uint64, expiresAt time.Time) (int64, error) {
    var n int64
    exp := expiresAt.UTC()
    for _, num := range numbers {
        tk, ok := t.st.tickets[raffleID][num]
        if !ok || tk.State != model.TicketAvailable {
            continue
        }
        b, p, e := buyerID, purchaseID, exp
        tk.State, tk.BuyerID, tk.PurchaseID, tk.HoldExpiresAt = model.TicketHeld, &b, &p, &e
        t.st.tickets[raffleID][num] = tk
        n++
    }
    return n, nil
}

func (t *tx) ReleaseTickets(_ context.Context, raffleID, purchaseID uint64) ([]string, error) {
    var out []string
    for n, tk := range t.st.tickets[raffleID] {
        if tk.HeldBy(purchaseID) {
            t.st.tickets[raffleID][n] = available(tk)
            out = append(out, n)
        }
    }
    sort.Strings(out)
    return out, nil
}

func (t *tx) SellTickets(_ context.Context, raffleID uint64, numbers []string, buyerID, purchaseID uint64) (int64, error) {
    var n int64
    for _, num := range numbers {
        tk, ok := t.st.tickets[raffleID][num]
        if !ok || !(tk.State == model.TicketAvailable || tk.HeldBy(purchaseID)) {
            continue
        }
        b, p := buyerID, purchaseID
        tk.State, tk.BuyerID, tk.PurchaseID, tk.HoldExpiresAt = model.TicketSold, &b, &p, nil
        t.st.tickets[raffleID][num] = tk
        n++
    }
    return n, nil
}

func available(tk model.Ticket) model.Ticket {
    tk.State = model.TicketAvailable
    tk.BuyerID, tk.PurchaseID, tk.HoldExpiresAt = nil, nil, nil
    return tk
}

// ----- buyers & purchases -----

func (t *tx) UpsertBuyer(_ context.Context, b *model.Buyer) error {
    for id, existing := range t.st.buyers {
        if existing.NationalID == b.NationalID {
            b.ID = id
            t.st.buyers[id] = *b
            return nil
        }
    }
    b.ID = t.st.next("buyers")
    t.st.buyers[b.ID] = *b
    return nil
}

func (t *tx) GetBuyer(_ context.Context, buyerID uint64) (model.Buyer, error) {
    b, ok := t.st.buyers[buyerID]
    if !ok {
        return model.Buyer{}, inventory.ErrNotFound
    }
    return b, nil
}

func (t *tx) CreatePurchase(_ context.Context, p *model.Purchase) error {
    if p.PaymentRef != "" {
        for _, existing := range t.st.purchases {
            if existing.PaymentRef == p.PaymentRef {
                return inventory.ErrDuplicate
            }
        }
    }
    p.ID = t.st.next("purchases")
    if p.CreatedAt.IsZero() {
        p.CreatedAt = time.Now().UTC()
    }
    cp := *p
    cp.Numbers = append([]string(nil), p.Numbers...)
    t.st.purchases[p.ID] = cp
    return nil
}

func (t *tx) SetPurchaseReference(_ context.Context, purchaseID uint64, ref string) error {
    p, ok := t.st.purchases[purchaseID]
    if !ok {
        return inventory.ErrNotFound
    }
    for id, existing := range t.st.purchases {
        if id != purchaseID && existing.PaymentRef == ref {
            return inventory.ErrDuplicate
        }
    }
    p.PaymentRef = ref
    t.st.purchases[purchaseID] = p
    return nil
}

func (t *tx) GetPurchase(_ context.Context, purchaseID uint64) (model.Purchase, error) {
    p, ok := t.st.purchases[purchaseID]
    if !ok {
        return model.Purchase{}, inventory.ErrNotFound
    }
    p.Numbers = append([]string(nil), p.Numbers...)
    return p, nil
}

func (t *tx) GetPurchaseByReference(ctx context.Context, ref string) (model.Purchase, error) {
    for id, p := range t.st.purchases {
        if p.PaymentRef == ref {
            return t.GetPurchase(ctx, id)
        }
    }
    return model.Purchase{}, inventory.ErrNotFound
}

func (t *tx) MarkPurchasePaid(_ context.Context, purchaseID uint64, paidAt time.Time) error {
    p, ok := t.st.purchases[purchaseID]
    if !ok {
        return inventory.ErrNotFound
    }
    at := paidAt.UTC()
    p.Status, p.PaidAt = model.PurchasePaid, &at
    t.st.purchases[purchaseID] = p
    return nil
}

func (t *tx) DeletePurchase(_ context.Context, purchaseID uint64) error {
    if _, ok := t.st.purchases[purchaseID]; !ok {
        return inventory.ErrNotFound
    }
    delete(t.st.purchases, purchaseID)
    return nil
}

func (t *tx) ListPurchases(_ context.Context, raffleID uint64) ([]model.Purchase, error) {
    var out []model.Purchase
    for _, p := range t.st.purchases {
        if p.RaffleID == raffleID {
            p.Numbers = append([]string(nil), p.Numbers...)
            out = append(out, p)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

// ----- tenants -----

func (t *tx) GetTenant(_ context.Context, tenantID uint64) (model.Tenant, error) {
    tn, ok := t.st.tenants[tenantID]
    if !ok {
        return model.Tenant{}, inventory.ErrNotFound
    }
    return tn, nil
}

func (t *tx) GetTenantBySlug(_ context.Context, slug string) (model.Tenant, error) {
    for _, tn := range t.st.tenants {
        if tn.Slug == slug {
            return tn, nil
        }
    }
    return model.Tenant{}, inventory.ErrNotFound
}

func (t *tx) CreateTenant(_ context.Context, tn *model.Tenant) error {
    for _, existing := range t.st.tenants {
        if existing.Slug == tn.Slug {
            return inventory.ErrDuplicate
        }
    }
    tn.ID = t.st.next("tenants")
    if tn.CreatedAt.IsZero() {
        tn.CreatedAt = time.Now().UTC()
    }
    t.st.tenants[tn.ID] = *tn
    return nil
}

func (t *tx) UpdatePaymentSettings(_ context.Context, tenantID uint64, publicKey, privateKey, integritySecret string) error {
    tn, ok := t.st.tenants[tenantID]
    if !ok {
        return inventory.ErrNotFound
    }
    tn.PublicKey, tn.PrivateKey, tn.IntegritySecret = publicKey, privateKey, integritySecret
    t.st.tenants[tenantID] = tn
    return nil
}

// ----- accounts -----

// CreateUser implements inventory.Accounts.
func (s *Store) CreateUser(_ context.Context, tenantID uint64, email, password string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.st.tenants[tenantID]; !ok {
        return 0, inventory.ErrNotFound
    }
    for _, u := range s.st.users {
        if u.Email == email {
            return 0, inventory.ErrDuplicate
        }
    }
    id := s.st.next("users")
    s.st.users[id] = model.TenantUser{
        ID: id, TenantID: tenantID, Email: email, PasswordHash: hash,
        Role: model.RoleAdmin, IsActive: true, CreatedAt: time.Now().UTC(),
    }
    return id, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (model.TenantUser, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, u := range s.st.users {
        if u.Email == email {
            return u, nil
        }
    }
    return model.TenantUser{}, inventory.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, userID uint64) (model.TenantUser, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.st.users[userID]
    if !ok {
        return model.TenantUser{}, inventory.ErrNotFound
    }
    return u, nil
}

func (s *Store) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.st.tokens[tokenHash] = tokenRow{userID: userID, expiresAt: exp}
    return nil
}

func (s *Store) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    row, ok := s.st.tokens[tokenHash]
    if !ok || row.revoked || time.Now().UTC().After(row.expiresAt) {
        return 0, inventory.ErrNotFound
    }
    return row.userID, nil
}

func (s *Store) RevokeByHash(_ context.Context, tokenHash string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if row, ok := s.st.tokens[tokenHash]; ok {
        row.revoked = true
        s.st.tokens[tokenHash] = row
    }
    return nil
}

func (s *Store) RevokeAllForUser(_ context.Context, userID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    for h, row := range s.st.tokens {
        if row.userID == userID {
            row.revoked = true
            s.st.tokens[h] = row
        }
    }
    return nil
}

var (
    _ inventory.Store    = (*Store)(nil)
    _ inventory.Accounts = (*Store)(nil)
    _ inventory.Tx       = (*tx)(nil)
)
