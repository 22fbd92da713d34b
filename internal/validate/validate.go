// Package validate holds the field constraints shared by the HTTP layer and
// the store. All checks are pure; callers decide how to surface a failure.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	PasswordMinLength    = 6
	ContextNameMaxLength = 50
	NoteTitleMaxLength   = 100
	NoteContentMaxLength = 10000
)

// Permissive local@domain.tld shape. Real deliverability is the mail
// provider's problem.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func Email(s string) bool {
	return emailRe.MatchString(s)
}

func Password(s string) bool {
	return utf8.RuneCountInString(s) >= PasswordMinLength
}

// Length bounds count characters, not bytes.

func ContextName(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && utf8.RuneCountInString(t) <= ContextNameMaxLength
}

func NoteTitle(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && utf8.RuneCountInString(t) <= NoteTitleMaxLength
}

func NoteContent(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && utf8.RuneCountInString(t) <= NoteContentMaxLength
}
