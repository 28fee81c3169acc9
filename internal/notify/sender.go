package notify

import (
    "context"
    "errors"
    "fmt"
    "log"
)

// Sender delivers a message on one channel.
type Sender interface {
    Name() string
    // Accepts reports whether the contact has an address on this channel.
    Accepts(to Contact) bool
    Send(ctx context.Context, to Contact, msg Message) error
}

// Fanout sends a message on every channel the contact can receive.
type Fanout struct {
    senders []Sender
}

// NewFanout skips nil senders so callers can pass unconfigured channels.
func NewFanout(senders ...Sender) *Fanout {
    f := &Fanout{}
    for _, s := range senders {
        if s != nil {
            f.senders = append(f.senders, s)
        }
    }
    return f
}

// Channels lists the configured channel names.
func (f *Fanout) Channels() []string {
    out := make([]string, 0, len(f.senders))
    for _, s := range f.senders {
        out = append(out, s.Name())
    }
    return out
}

// Deliver renders the summary and sends it on every accepting channel.  It
// returns the joined channel errors; a failing channel does not stop the
// others.
func (f *Fanout) Deliver(ctx context.Context, to Contact, s Summary) error {
    msg := Render(s)
    var errs []error
    sent := 0
    for _, snd := range f.senders {
        if !snd.Accepts(to) {
            continue
        }
        if err := sendWithContext(ctx, snd, to, msg); err != nil {
            errs = append(errs, fmt.Errorf("%s: %w", snd.Name(), err))
            continue
        }
        sent++
    }
    if sent == 0 && len(errs) == 0 {
        log.Printf("notify: no channel for %q (%s)", to.Name, s.Kind)
    }
    return errors.Join(errs...)
}

// sendWithContext bounds senders whose client libraries take no context.
func sendWithContext(ctx context.Context, snd Sender, to Contact, msg Message) error {
    done := make(chan error, 1)
    go func() { done <- snd.Send(ctx, to, msg) }()
    select {
    case err := <-done:
        return err
    case <-ctx.Done():
        return ctx.Err()
    }
}
