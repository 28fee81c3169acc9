package queue

import (
    "context"
    "encoding/json"
    "errors"
    "testing"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/raffle-reservation/internal/notify"
)

type recordingChannel struct {
    declared  string
    published []amqp.Publishing
    key       string
    closed    bool
}

func (r *recordingChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
    r.declared = name
    return amqp.Queue{Name: name}, nil
}

func (r *recordingChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
    r.key = key
    r.published = append(r.published, msg)
    return nil
}

func (r *recordingChannel) Close() error { r.closed = true; return nil }

type recordingDeliverer struct {
    to  notify.Contact
    s   notify.Summary
    err error
}

func (r *recordingDeliverer) Deliver(_ context.Context, to notify.Contact, s notify.Summary) error {
    r.to, r.s = to, s
    return r.err
}

func summary() notify.Summary {
    return notify.Summary{
        Kind:       notify.KindPurchaseConfirmed,
        RaffleName: "Moto",
        Reference:  "purchase_3",
        Numbers:    []string{"12"},
        Total:      decimal.NewFromInt(5000),
    }
}

func stubOpen(chs ...channel) (func(string, time.Duration) (channel, func(), error), *int) {
    dials := 0
    return func(string, time.Duration) (channel, func(), error) {
        ch := chs[dials]
        dials++
        return ch, func() {}, nil
    }, &dials
}

func TestPublisherPersistent(t *testing.T) {
    ch := &recordingChannel{}
    p := NewPublisher("amqp://unused", "raffle.notifications", time.Second)
    p.open, _ = stubOpen(ch)

    err := p.Notify(context.Background(), notify.Contact{Name: "Ana", Phone: "+57300"}, summary())
    require.NoError(t, err)
    require.Len(t, ch.published, 1)
    assert.Equal(t, "raffle.notifications", ch.declared)
    assert.Equal(t, "raffle.notifications", ch.key)
    assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

    var n Notification
    require.NoError(t, json.Unmarshal(ch.published[0].Body, &n))
    assert.Equal(t, "Ana", n.Contact.Name)
    assert.Equal(t, "purchase_3", n.Summary.Reference)
    assert.True(t, n.Summary.Total.Equal(decimal.NewFromInt(5000)))

    p.Close()
    assert.True(t, ch.closed)
}

func TestPublisherReusesConnection(t *testing.T) {
    ch := &recordingChannel{}
    p := NewPublisher("amqp://unused", "q", time.Second)
    var dials *int
    p.open, dials = stubOpen(ch)

    for i := 0; i < 3; i++ {
        require.NoError(t, p.Notify(context.Background(), notify.Contact{}, summary()))
    }
    assert.Equal(t, 1, *dials)
    assert.Len(t, ch.published, 3)
    assert.False(t, ch.closed)
}

// failingChannel fails every publish as a dropped connection does.
type failingChannel struct{ recordingChannel }

func (f *failingChannel) PublishWithContext(context.Context, string, string, bool, bool, amqp.Publishing) error {
    return amqp.ErrClosed
}

func TestPublisherRedialsDroppedConnection(t *testing.T) {
    dead, fresh := &failingChannel{}, &recordingChannel{}
    p := NewPublisher("amqp://unused", "q", time.Second)
    var dials *int
    p.open, dials = stubOpen(dead, fresh)

    require.NoError(t, p.Notify(context.Background(), notify.Contact{}, summary()))
    assert.Equal(t, 2, *dials)
    assert.True(t, dead.closed)
    assert.Len(t, fresh.published, 1)
}

func TestPublisherDialError(t *testing.T) {
    p := NewPublisher("amqp://unused", "q", time.Second)
    p.open = func(string, time.Duration) (channel, func(), error) { return nil, nil, errors.New("refused") }
    assert.Error(t, p.Notify(context.Background(), notify.Contact{}, summary()))
}

// stalledChannel blocks like a broker under flow control.
type stalledChannel struct{ recordingChannel }

func (s *stalledChannel) PublishWithContext(ctx context.Context, _, _ string, _, _ bool, _ amqp.Publishing) error {
    <-ctx.Done()
    return ctx.Err()
}

func TestPublisherTimesOutBlockedPublish(t *testing.T) {
    p := NewPublisher("amqp://unused", "q", 50*time.Millisecond)
    p.open, _ = stubOpen(&stalledChannel{})

    start := time.Now()
    err := p.Notify(context.Background(), notify.Contact{}, summary())
    assert.ErrorIs(t, err, context.DeadlineExceeded)
    assert.Less(t, time.Since(start), time.Second)
}

// stuckDeclare never answers the queue declaration until released.
type stuckDeclare struct {
    recordingChannel
    release chan struct{}
}

func (s *stuckDeclare) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
    <-s.release
    return amqp.Queue{Name: name}, nil
}

func TestPublisherTimesOutBlockedDeclare(t *testing.T) {
    ch := &stuckDeclare{release: make(chan struct{})}
    defer close(ch.release)
    p := NewPublisher("amqp://unused", "q", 50*time.Millisecond)
    p.open, _ = stubOpen(ch)

    start := time.Now()
    err := p.Notify(context.WithoutCancel(context.Background()), notify.Contact{}, summary())
    assert.ErrorIs(t, err, context.DeadlineExceeded)
    assert.Less(t, time.Since(start), time.Second)
}

func TestHandleMessage(t *testing.T) {
    out := &recordingDeliverer{}
    c := &Consumer{Out: out}
    body, _ := json.Marshal(Notification{Contact: notify.Contact{Email: "a@b.co"}, Summary: summary()})

    require.NoError(t, c.handleMessage(context.Background(), body))
    assert.Equal(t, "a@b.co", out.to.Email)
    assert.Equal(t, []string{"12"}, out.s.Numbers)
}

func TestHandleMessageRejects(t *testing.T) {
    c := &Consumer{Out: &recordingDeliverer{err: errors.New("smtp down")}}
    assert.Error(t, c.handleMessage(context.Background(), []byte("{")))

    body, _ := json.Marshal(Notification{Summary: summary()})
    err := c.handleMessage(context.Background(), body)
    require.Error(t, err)
    assert.Contains(t, err.Error(), "purchase_3")
}
