package inventory

import (
    "context"

    "github.com/iliyamo/raffle-reservation/internal/model"
)

// Lookup returns the current state of exactly the requested numbers, in
// request order.  If any number does not exist in the raffle it returns a
// *MissingError; callers treat a short result as an availability failure,
// never as a partial success.
func Lookup(ctx context.Context, tx TicketTx, raffleID uint64, numbers []string) ([]model.Ticket, error) {
    found, err := tx.GetTickets(ctx, raffleID, numbers)
    if err != nil {
        return nil, err
    }
    byNumber := make(map[string]model.Ticket, len(found))
    for _, t := range found {
        byNumber[t.Number] = t
    }
    out := make([]model.Ticket, 0, len(numbers))
    var missing []string
    for _, n := range numbers {
        t, ok := byNumber[n]
        if !ok {
            missing = append(missing, n)
            continue
        }
        out = append(out, t)
    }
    if len(missing) > 0 {
        return out, &MissingError{Numbers: missing}
    }
    return out, nil
}

// Unavailable returns the numbers among tickets that are not AVAILABLE.
func Unavailable(tickets []model.Ticket) []string {
    var out []string
    for _, t := range tickets {
        if t.State != model.TicketAvailable {
            out = append(out, t.Number)
        }
    }
    return out
}
