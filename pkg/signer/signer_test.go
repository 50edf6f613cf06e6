package signer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerify(t *testing.T) {
	secret := "whsec_test_secret"
	body := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)
	now := time.Unix(1700000000, 0)

	header := Sign(secret, body, now)
	assert.True(t, strings.HasPrefix(header, "t=1700000000,v1="))

	err := Verify(secret, body, header, 5*time.Minute, now)
	assert.NoError(t, err)
}

func TestVerify_TamperedBody(t *testing.T) {
	secret := "whsec_test_secret"
	now := time.Now()

	header := Sign(secret, []byte(`{"amount":100}`), now)
	err := Verify(secret, []byte(`{"amount":999}`), header, 5*time.Minute, now)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerify_WrongSecret(t *testing.T) {
	body := []byte(`{"amount":100}`)
	now := time.Now()

	header := Sign("whsec_a", body, now)
	err := Verify("whsec_b", body, header, 5*time.Minute, now)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerify_StaleTimestamp(t *testing.T) {
	secret := "whsec_test_secret"
	body := []byte(`{}`)
	signedAt := time.Unix(1700000000, 0)

	header := Sign(secret, body, signedAt)

	// Just inside the window
	err := Verify(secret, body, header, 5*time.Minute, signedAt.Add(5*time.Minute))
	assert.NoError(t, err)

	// Just outside
	err = Verify(secret, body, header, 5*time.Minute, signedAt.Add(5*time.Minute+time.Second))
	assert.ErrorIs(t, err, ErrTimestampOutside)

	// Future-dated signatures are rejected the same way
	err = Verify(secret, body, header, 5*time.Minute, signedAt.Add(-6*time.Minute))
	assert.ErrorIs(t, err, ErrTimestampOutside)
}

func TestVerify_MalformedHeader(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()

	cases := []string{
		"",
		"garbage",
		"t=123",
		"v1=abc",
		fmt.Sprintf("t=notanumber,v1=%s", strings.Repeat("a", 64)),
	}
	for _, header := range cases {
		err := Verify("secret", body, header, 5*time.Minute, now)
		assert.ErrorIs(t, err, ErrMalformedSignature, "header %q", header)
	}
}

func TestHash_Deterministic(t *testing.T) {
	a := Hash([]byte("payload"))
	b := Hash([]byte("payload"))
	c := Hash([]byte("payload2"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestGenerateAPIKey(t *testing.T) {
	k1 := GenerateAPIKey()
	k2 := GenerateAPIKey()

	assert.True(t, strings.HasPrefix(k1, "pk_"))
	assert.NotEqual(t, k1, k2)
}

func TestGenerateWebhookSecret(t *testing.T) {
	s := GenerateWebhookSecret()
	assert.True(t, strings.HasPrefix(s, "whsec_"))
}

func TestGenerateAPIKey_PanicsWithoutEntropy(t *testing.T) {
	orig := randRead
	randRead = func([]byte) (int, error) { return 0, errors.New("entropy exhausted") }
	defer func() { randRead = orig }()

	assert.Panics(t, func() { GenerateAPIKey() })
}
