package inventory

import (
    "errors"
    "fmt"
    "math/rand/v2"
    "strconv"
    "strings"
)

// Supported digit widths.  Width 2 always produces the full "00".."99" set.
const (
    MinDigitWidth  = 1
    MaxDigitWidth  = 6
    FullGridWidth  = 2
    FullGridTicket = 100
)

var errBadWidth = errors.New("digit width out of range")

// SpaceSize returns 10^width, the number of distinct tickets of that width.
func SpaceSize(width int) int {
    n := 1
    for i := 0; i < width; i++ {
        n *= 10
    }
    return n
}

// Format zero-pads n to width digits.
func Format(n, width int) string {
    s := strconv.Itoa(n)
    if len(s) >= width {
        return s
    }
    return strings.Repeat("0", width-len(s)) + s
}

// GenerateNumbers returns the ticket numbers for a new raffle.  Width 2
// yields "00".."99" in order and ignores count.  Any other width yields
// count distinct numbers drawn without replacement from the width's number
// space, in random order.
func GenerateNumbers(width, count int, rng *rand.Rand) ([]string, error) {
    if width < MinDigitWidth || width > MaxDigitWidth {
        return nil, fmt.Errorf("%w: %d", errBadWidth, width)
    }
    if width == FullGridWidth {
        out := make([]string, FullGridTicket)
        for i := range out {
            out[i] = Format(i, width)
        }
        return out, nil
    }
    space := SpaceSize(width)
    if count < 1 || count > space {
        return nil, fmt.Errorf("ticket count %d outside 1..%d for width %d", count, space, width)
    }
    if rng == nil {
        rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
    }
    picked := sample(space, count, rng)
    out := make([]string, len(picked))
    for i, n := range picked {
        out[i] = Format(n, width)
    }
    return out, nil
}

// sample draws count distinct ints from [0, space) using Floyd's algorithm
// and shuffles the result.
func sample(space, count int, rng *rand.Rand) []int {
    chosen := make(map[int]struct{}, count)
    out := make([]int, 0, count)
    for j := space - count; j < space; j++ {
        t := rng.IntN(j + 1)
        if _, dup := chosen[t]; dup {
            t = j
        }
        chosen[t] = struct{}{}
        out = append(out, t)
    }
    rng.Shuffle(len(out), func(a, b int) { out[a], out[b] = out[b], out[a] })
    return out
}

// ParseNumbers splits a comma separated selection such as "05, 12,05" into
// trimmed, de-duplicated numbers in first-seen order.  Empty entries are
// dropped.
func ParseNumbers(raw string) []string {
    seen := make(map[string]struct{})
    var out []string
    for _, p := range strings.Split(raw, ",") {
        p = strings.TrimSpace(p)
        if p == "" {
            continue
        }
        if _, ok := seen[p]; ok {
            continue
        }
        seen[p] = struct{}{}
        out = append(out, p)
    }
    return out
}

// ValidNumber reports whether s is a width-digit decimal string.
func ValidNumber(s string, width int) bool {
    if len(s) != width {
        return false
    }
    for _, r := range s {
        if r < '0' || r > '9' {
            return false
        }
    }
    return true
}
