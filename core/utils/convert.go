package utils

import (
	"net/mail"
	"strconv"
)

// ToNumberWithDefault parses s as an int, falling back to def.
func ToNumberWithDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// IsValidEmail reports whether s is a syntactically valid address.
func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
