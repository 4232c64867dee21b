// Package pii provides fixed-pattern detection and masking of personally
// identifiable information in text.
package pii

import (
	"regexp"
	"strings"
)

// Kind names a recognised PII class.
type Kind string

const (
	// KindEmail matches email addresses.
	KindEmail Kind = "email"
	// KindSSN matches ###-##-#### social security numbers.
	KindSSN Kind = "ssn"
	// KindPhone matches ###-###-#### phone numbers with optional separators.
	KindPhone Kind = "phone"
	// KindCreditCard matches four groups of four digits with optional separators.
	KindCreditCard Kind = "credit_card"
)

// kindOrder fixes the masking order. Masking is applied independently per
// kind; when patterns overlap, the kind applied last wins, so the order must
// stay stable across releases.
var kindOrder = [...]Kind{KindEmail, KindSSN, KindPhone, KindCreditCard}

var kindPatterns = map[Kind]*regexp.Regexp{
	KindEmail:      regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	KindSSN:        regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	KindPhone:      regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
	KindCreditCard: regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`),
}

// Token returns the literal replacement written in place of a match,
// e.g. [EMAIL_REDACTED]. Tokens contain no digits or address-shaped text,
// which keeps Mask idempotent.
func Token(kind Kind) string {
	return "[" + strings.ToUpper(string(kind)) + "_REDACTED]"
}

type rule struct {
	kind  Kind
	expr  *regexp.Regexp
	token string
}

// Scanner is a stateless pattern matcher over text. The zero value is not
// usable; construct with NewScanner.
type Scanner struct {
	rules []rule
}

// NewScanner builds a scanner over the fixed PII pattern catalog.
func NewScanner() *Scanner {
	rules := make([]rule, 0, len(kindOrder))
	for _, kind := range kindOrder {
		rules = append(rules, rule{kind: kind, expr: kindPatterns[kind], token: Token(kind)})
	}
	return &Scanner{rules: rules}
}

// Detect scans text and returns the count of non-overlapping matches per
// kind. Kinds with no matches are absent from the result.
func (s *Scanner) Detect(text string) map[Kind]int {
	found := make(map[Kind]int)
	for _, r := range s.rules {
		if n := len(r.expr.FindAllStringIndex(text, -1)); n > 0 {
			found[r.kind] = n
		}
	}
	return found
}

// Mask replaces every match of every kind with its redaction token,
// applying kinds in the fixed order email, ssn, phone, credit_card.
// Masking is idempotent: Mask(Mask(text)) == Mask(text).
func (s *Scanner) Mask(text string) string {
	masked := text
	for _, r := range s.rules {
		masked = r.expr.ReplaceAllLiteralString(masked, r.token)
	}
	return masked
}

// Kinds lists the detected kinds of a Detect result in masking order.
// Useful for deterministic event payloads.
func Kinds(found map[Kind]int) []string {
	kinds := make([]string, 0, len(found))
	for _, kind := range kindOrder {
		if _, ok := found[kind]; ok {
			kinds = append(kinds, string(kind))
		}
	}
	return kinds
}
