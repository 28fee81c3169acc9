package utils

import (
    "strings"
    "unicode"

    "github.com/google/uuid"
    "golang.org/x/text/runes"
    "golang.org/x/text/transform"
    "golang.org/x/text/unicode/norm"
)

// Slugify lower-cases s, strips accents ("Rifa Navideña" -> "rifa-navidena")
// and joins runs of letters and digits with single dashes.
func Slugify(s string) string {
    t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
    plain, _, err := transform.String(t, s)
    if err != nil {
        plain = s
    }
    var b strings.Builder
    dash := false
    for _, r := range strings.ToLower(plain) {
        switch {
        case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
            b.WriteRune(r)
            dash = false
        case b.Len() > 0 && !dash:
            b.WriteByte('-')
            dash = true
        }
    }
    return strings.TrimSuffix(b.String(), "-")
}

// UniqueSlug appends the first eight characters of a random UUID to the
// slugified name.
func UniqueSlug(name string) string {
    suffix := uuid.NewString()[:8]
    base := Slugify(name)
    if base == "" {
        return suffix
    }
    return base + "-" + suffix
}
