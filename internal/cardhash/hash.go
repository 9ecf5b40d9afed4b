// Package cardhash derives stable content identities for cards, so a card
// keeps its memory state across syncs as long as its text is unchanged.
package cardhash

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize cleans and joins the card's content fields. Each field is
// lowercased, trimmed, and has its line endings normalized, then the
// fields are joined with a field-prefix line so "question"+"answer" can
// never collide with a differently split pair.
func Normalize(question, answer, context string) string {
	clean := func(s string) string {
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	b.WriteString("q\x00")
	b.WriteString(clean(question))
	b.WriteString("\na\x00")
	b.WriteString(clean(answer))
	b.WriteString("\nc\x00")
	b.WriteString(clean(context))
	return b.String()
}

// Hash returns the SHA-256 of the normalized content as a hex string.
func Hash(question, answer, context string) string {
	sum := sha256.Sum256([]byte(Normalize(question, answer, context)))
	return fmt.Sprintf("%x", sum)
}
