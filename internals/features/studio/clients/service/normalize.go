package service

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrInvalidPhone = errors.New("phone must contain 6 to 15 digits")
	ErrInvalidEmail = errors.New("invalid email")
)

// NormalizePhone strips separators and keeps a single leading '+'.
// Empty input returns "" without error.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	var b strings.Builder
	digits := 0
	for i, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	if digits < 6 || digits > 15 {
		return "", ErrInvalidPhone
	}
	return b.String(), nil
}

// NormalizeEmail lowercases and trims. Empty input returns "".
func NormalizeEmail(raw string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(raw))
	if e == "" {
		return "", nil
	}
	at := strings.LastIndex(e, "@")
	if at <= 0 || at == len(e)-1 || strings.ContainsAny(e, " \t") || !strings.Contains(e[at+1:], ".") {
		return "", ErrInvalidEmail
	}
	return e, nil
}

// NormalizePtr applies fn to an optional field; blank results become nil.
func NormalizePtr(v *string, fn func(string) (string, error)) (*string, error) {
	if v == nil {
		return nil, nil
	}
	out, err := fn(*v)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return &out, nil
}
