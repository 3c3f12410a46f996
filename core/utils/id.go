package utils

import (
	"crypto/rand"
	"encoding/base64"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GeneratePublicToken returns the opaque token that addresses a host's public
// booking page. 16 chars over a 62-char alphabet is far beyond guessable.
func GeneratePublicToken() string {
	id, err := gonanoid.Generate(idAlphabet, 16)
	if err != nil {
		return GenerateRandomString(16)
	}
	return id
}

// GenerateRequestID returns a short id for conferencing create requests.
func GenerateRequestID() string {
	id, err := gonanoid.Generate(idAlphabet, 10)
	if err != nil {
		return GenerateRandomString(10)
	}
	return id
}

// GenerateRandomString generates a cryptographically secure random string.
func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		id, _ := gonanoid.Generate(idAlphabet, length)
		return id
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length]
}
