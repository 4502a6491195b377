package intent

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainClause = "vizintent/clause/v1"
	DomainIntent = "vizintent/intent/v1"
	DomainVis    = "vizintent/vis/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Field separators for canonical encoding. Unit separator between fields,
// record separator between list members.
const (
	fieldSep  = "\x1f"
	memberSep = "\x1e"
)

// CanonicalBytes returns the stable encoding of every structural field of
// the clause. Strings are NFC normalized.
func (c Clause) CanonicalBytes() []byte {
	var b strings.Builder
	writeField := func(s string) {
		b.WriteString(norm.NFC.String(s))
		b.WriteString(fieldSep)
	}
	writeField(c.Attribute.Kind.String())
	writeField(strings.Join(c.Attribute.Names, memberSep))
	writeField(c.Value.Kind.String())
	vals := make([]string, len(c.Value.Values))
	for i, v := range c.Value.Values {
		vals[i] = canonicalValue(v)
	}
	writeField(strings.Join(vals, memberSep))
	writeField(string(c.Op()))
	writeField(string(c.Channel))
	writeField(string(c.DataModel))
	writeField(string(c.DataType))
	writeField(string(c.Sort))
	writeField(strings.Join(c.Exclude, memberSep))
	writeField(c.Aggregation)
	return []byte(b.String())
}

// canonicalValue tags numeric values so that "1" and 1 hash alike while
// "USA" and a Time with the same text do not collide.
func canonicalValue(v Value) string {
	if f, ok := asFloat(v); ok {
		return "n:" + Number(f).Canonical()
	}
	return "s:" + v.Canonical()
}

// Fingerprint identifies the clause structurally.
func (c Clause) Fingerprint() string {
	return HashWithDomain(DomainClause, c.CanonicalBytes())
}

// Fingerprint identifies the intent structurally. Clause order matters.
func (in Intent) Fingerprint() string {
	var b strings.Builder
	for _, c := range in {
		b.Write(c.CanonicalBytes())
		b.WriteString(memberSep)
	}
	return HashWithDomain(DomainIntent, []byte(b.String()))
}
