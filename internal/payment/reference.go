// Package payment talks to the hosted-checkout payment gateway: it builds
// signed checkout links for a purchase and decodes the gateway's
// transaction events.
package payment

import (
    "strconv"
    "strings"
)

const referencePrefix = "purchase_"

// Reference returns the gateway reference for a purchase ID.
func Reference(purchaseID uint64) string {
    return referencePrefix + strconv.FormatUint(purchaseID, 10)
}

// ParseReference recovers the purchase ID from a reference produced by
// Reference.  ok is false for anything else.
func ParseReference(ref string) (uint64, bool) {
    rest, found := strings.CutPrefix(strings.TrimSpace(ref), referencePrefix)
    if !found || rest == "" {
        return 0, false
    }
    id, err := strconv.ParseUint(rest, 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// Outcome is the effect a transaction status has on a purchase.
type Outcome int

const (
    // OutcomeNone covers PENDING and unknown statuses; nothing changes.
    OutcomeNone Outcome = iota
    OutcomeApproved
    // OutcomeFailed covers DECLINED, VOIDED and ERROR.
    OutcomeFailed
)

func (o Outcome) String() string {
    switch o {
    case OutcomeApproved:
        return "approved"
    case OutcomeFailed:
        return "failed"
    }
    return "none"
}

// Classify maps a gateway transaction status to an Outcome.
func Classify(status string) Outcome {
    switch strings.ToUpper(strings.TrimSpace(status)) {
    case "APPROVED":
        return OutcomeApproved
    case "DECLINED", "VOIDED", "ERROR":
        return OutcomeFailed
    }
    return OutcomeNone
}
