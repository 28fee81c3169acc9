package payment

import (
    "bytes"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
)

// ErrChecksumMismatch is returned by VerifyChecksum when the event was not
// signed with the configured secret.
var ErrChecksumMismatch = errors.New("event checksum mismatch")

// Event is the subset of a gateway webhook the service relies on.
type Event struct {
    Event string `json:"event"`
    Data  struct {
        Transaction struct {
            ID        string `json:"id"`
            Reference string `json:"reference"`
            Status    string `json:"status"`
        } `json:"transaction"`
    } `json:"data"`
    Reference string `json:"reference"`
    Signature struct {
        Properties []string `json:"properties"`
        Checksum   string   `json:"checksum"`
    } `json:"signature"`
    Timestamp json.Number `json:"timestamp"`
}

// ParseEvent decodes a webhook body.  Only structurally invalid JSON is an
// error; missing fields are left empty.
func ParseEvent(body []byte) (Event, error) {
    var ev Event
    dec := json.NewDecoder(bytes.NewReader(body))
    dec.UseNumber()
    if err := dec.Decode(&ev); err != nil {
        return Event{}, fmt.Errorf("decode event: %w", err)
    }
    return ev, nil
}

// TransactionReference returns data.transaction.reference, falling back to
// a top-level reference.
func (e Event) TransactionReference() string {
    if r := strings.TrimSpace(e.Data.Transaction.Reference); r != "" {
        return r
    }
    return strings.TrimSpace(e.Reference)
}

// TransactionStatus returns data.transaction.status, ERROR when absent.
func (e Event) TransactionStatus() string {
    if s := strings.TrimSpace(e.Data.Transaction.Status); s != "" {
        return strings.ToUpper(s)
    }
    return "ERROR"
}

// VerifyChecksum checks signature.checksum: the SHA-256 of the values named
// by signature.properties (paths under data), the timestamp and secret.
func VerifyChecksum(body []byte, secret string) error {
    var raw struct {
        Data      map[string]any `json:"data"`
        Signature struct {
            Properties []string `json:"properties"`
            Checksum   string   `json:"checksum"`
        } `json:"signature"`
        Timestamp json.Number `json:"timestamp"`
    }
    dec := json.NewDecoder(bytes.NewReader(body))
    dec.UseNumber()
    if err := dec.Decode(&raw); err != nil {
        return fmt.Errorf("decode event: %w", err)
    }
    if raw.Signature.Checksum == "" {
        return ErrChecksumMismatch
    }
    var b strings.Builder
    for _, prop := range raw.Signature.Properties {
        b.WriteString(lookupPath(raw.Data, prop))
    }
    b.WriteString(raw.Timestamp.String())
    b.WriteString(secret)
    sum := sha256.Sum256([]byte(b.String()))
    if !strings.EqualFold(hex.EncodeToString(sum[:]), raw.Signature.Checksum) {
        return ErrChecksumMismatch
    }
    return nil
}

func lookupPath(data map[string]any, path string) string {
    var cur any = data
    for _, key := range strings.Split(path, ".") {
        m, ok := cur.(map[string]any)
        if !ok {
            return ""
        }
        cur = m[key]
    }
    switch v := cur.(type) {
    case nil:
        return ""
    case string:
        return v
    case json.Number:
        return v.String()
    default:
        return fmt.Sprint(v)
    }
}
