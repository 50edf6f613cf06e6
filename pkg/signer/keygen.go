package signer

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

var randRead = rand.Read

// GenerateAPIKey returns a new merchant API key with the public "pk_" prefix.
func GenerateAPIKey() string {
	return "pk_" + randomToken(32)
}

// GenerateWebhookSecret returns a new webhook signing secret.
func GenerateWebhookSecret() string {
	return "whsec_" + randomToken(48)
}

// randomToken panics if the system entropy source fails; a credential
// must never be minted from anything weaker.
func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := randRead(b); err != nil {
		panic(fmt.Errorf("crypto/rand unavailable: %w", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
