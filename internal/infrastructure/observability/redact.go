package observability

import (
	"crypto/sha256"
	"encoding/hex"
)

// PIILevel controls how user supplied text ends up in span attributes.
type PIILevel string

const (
	// PIILevelNone redacts the text entirely
	PIILevelNone PIILevel = "none"
	// PIILevelHashed replaces the text with a salted digest
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull records the text as is
	PIILevelFull PIILevel = "full"
)

// Redactor rewrites queries and URLs before they are attached to spans.
type Redactor struct {
	level PIILevel
	salt  string
}

func NewRedactor(level PIILevel, salt string) *Redactor {
	return &Redactor{level: level, salt: salt}
}

// Redact applies the configured level. Unknown levels hash.
func (r *Redactor) Redact(input string) string {
	if r == nil {
		return "[REDACTED]"
	}
	switch r.level {
	case PIILevelNone:
		return "[REDACTED]"
	case PIILevelFull:
		return input
	default:
		sum := sha256.Sum256([]byte(r.salt + input))
		return "sha256:" + hex.EncodeToString(sum[:8])
	}
}
