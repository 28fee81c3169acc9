package queue

import (
    "context"
    "encoding/json"
    "errors"
    "log"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/raffle-reservation/internal/notify"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
    Close() error
}

const defaultPublishTimeout = 10 * time.Second

// Publisher enqueues notifications for the consumer.  The connection is
// dialed on first use and kept; a failed publish drops it and the next
// attempt dials again.  Every Notify is bounded by Timeout.
type Publisher struct {
    url     string
    queue   string
    Timeout time.Duration
    open    func(url string, timeout time.Duration) (channel, func(), error)

    mu        sync.Mutex
    ch        channel
    closeConn func()
}

func NewPublisher(url, queue string, timeout time.Duration) *Publisher {
    if timeout <= 0 {
        timeout = defaultPublishTimeout
    }
    return &Publisher{url: url, queue: queue, Timeout: timeout, open: dialChannel}
}

func dialChannel(url string, timeout time.Duration) (channel, func(), error) {
    conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(timeout)})
    if err != nil {
        return nil, nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, err
    }
    return ch, func() { _ = conn.Close() }, nil
}

// Notify publishes one persistent message.  Errors are logged and returned
// so the caller can ignore them.
func (p *Publisher) Notify(ctx context.Context, to notify.Contact, s notify.Summary) error {
    now := time.Now().UTC()
    body, err := json.Marshal(Notification{Contact: to, Summary: s, PublishedAt: now.Format(time.RFC3339)})
    if err != nil {
        return err
    }
    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    now,
        Body:         body,
    }

    ctx, cancel := context.WithTimeout(ctx, p.Timeout)
    defer cancel()

    // Dial and declare take no context; the select keeps the caller inside
    // the bound even when the broker stalls them.
    done := make(chan error, 1)
    go func() { done <- p.publish(ctx, msg) }()
    select {
    case err = <-done:
    case <-ctx.Done():
        err = ctx.Err()
    }
    if err != nil {
        log.Printf("rabbitmq: publish %s failed: %v", s.Reference, err)
    }
    return err
}

// publish sends msg, redialing once if the kept connection has gone away.
func (p *Publisher) publish(ctx context.Context, msg amqp.Publishing) error {
    p.mu.Lock()
    defer p.mu.Unlock()

    var err error
    for attempt := 0; attempt < 2; attempt++ {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        if p.ch == nil {
            if err = p.connect(); err != nil {
                return err
            }
        }
        err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
        if err == nil {
            return nil
        }
        p.reset()
        if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
            return err
        }
    }
    return err
}

func (p *Publisher) connect() error {
    ch, closeConn, err := p.open(p.url, p.Timeout)
    if err != nil {
        return err
    }
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        closeConn()
        return err
    }
    p.ch, p.closeConn = ch, closeConn
    return nil
}

// reset drops the kept channel and connection.  Callers hold mu.
func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.closeConn != nil {
        p.closeConn()
    }
    p.ch, p.closeConn = nil, nil
}

// Close releases the broker connection.  A publish still stuck on the
// broker keeps it.
func (p *Publisher) Close() {
    if !p.mu.TryLock() {
        return
    }
    defer p.mu.Unlock()
    p.reset()
}
