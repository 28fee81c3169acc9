package notify

import (
    "context"
    "log"
    "strings"
    "time"
)

// Direct delivers notifications in-process through a Fanout, bounded by a
// timeout.
type Direct struct {
    Fanout  *Fanout
    Timeout time.Duration
}

func (d *Direct) Notify(ctx context.Context, to Contact, s Summary) error {
    timeout := d.Timeout
    if timeout <= 0 {
        timeout = 10 * time.Second
    }
    // Delivery must outlive the request that triggered it.
    ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
    defer cancel()
    return d.Fanout.Deliver(ctx, to, s)
}

// Log only records what would have been sent.
type Log struct{}

func (Log) Notify(_ context.Context, to Contact, s Summary) error {
    log.Printf("notify: %s to %q ref=%s numbers=[%s]", s.Kind, to.Name, s.Reference, strings.Join(s.Numbers, ","))
    return nil
}
