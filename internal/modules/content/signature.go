package content

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalIdeaKey NFKC-normalizes and lowercases "topic|takeaway", drops
// everything except letters and digits (any script), and collapses whitespace.
func CanonicalIdeaKey(topic, takeaway string) string {
	return canonicalPart(topic) + "|" + canonicalPart(takeaway)
}

func canonicalPart(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	s = strings.ReplaceAll(s, "|", " ")
	s = strings.Join(strings.Fields(s), " ")
	s = nonCanonRE.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Signature is the content-addressed dedupe key for an idea.
func Signature(topic, takeaway string) string {
	sum := sha256.Sum256([]byte(CanonicalIdeaKey(topic, takeaway)))
	return hex.EncodeToString(sum[:])
}
