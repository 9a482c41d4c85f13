package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// randomSource feeds every generator in this file
var randomSource io.Reader = rand.Reader

// feedbackTokenBytes is the entropy of a feedback token before encoding
const feedbackTokenBytes = 32

// GenerateFeedbackToken returns a URL-safe random token suitable for use
// as a bearer credential in a shared link.
// Example: "q3V9mZ0yX2...". Always 43 characters.
func GenerateFeedbackToken() (string, error) {
	b := make([]byte, feedbackTokenBytes)
	if _, err := io.ReadFull(randomSource, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateShortID generates a short, URL-safe random ID
// Format: 8 characters, lowercase alphanumeric
// Example: "x7k9m2p1"
func GenerateShortID() (string, error) {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	const length = 8

	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(randomSource, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate short id: %w", err)
		}
		result[i] = chars[num.Int64()]
	}

	return string(result), nil
}

// FeedbackLink builds the shareable link handed to clients
func FeedbackLink(origin, token string) string {
	return fmt.Sprintf("%s/feedback/%s", strings.TrimRight(origin, "/"), token)
}
