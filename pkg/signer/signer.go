package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signature verification errors
var (
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrTimestampOutside   = errors.New("timestamp outside tolerance window")
)

// Sign produces a timestamped HMAC-SHA256 signature header value for body:
// "t=<unix_seconds>,v1=<hex_hmac>". The signed material is
// "<timestamp>.<body>" keyed by secret.
func Sign(secret string, body []byte, at time.Time) string {
	ts := at.Unix()
	mac := computeMAC(secret, ts, body)
	return fmt.Sprintf("t=%d,v1=%s", ts, mac)
}

// Verify checks a signature header produced by Sign against body.
// The embedded timestamp must be within tolerance of now to reject
// stale or replayed signatures.
func Verify(secret string, body []byte, header string, tolerance time.Duration, now time.Time) error {
	ts, mac, err := parseHeader(header)
	if err != nil {
		return err
	}

	age := now.Unix() - ts
	if age < 0 {
		age = -age
	}
	if age > int64(tolerance.Seconds()) {
		return ErrTimestampOutside
	}

	expected := computeMAC(secret, ts, body)
	if !hmac.Equal([]byte(expected), []byte(mac)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Hash returns the hex SHA-256 digest of data. Used to fingerprint
// normalized request payloads for idempotency checks.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeMAC(secret string, ts int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", ts)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func parseHeader(header string) (int64, string, error) {
	var tsPart, macPart string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return 0, "", ErrMalformedSignature
		}
		switch k {
		case "t":
			tsPart = v
		case "v1":
			macPart = v
		}
	}
	if tsPart == "" || macPart == "" {
		return 0, "", ErrMalformedSignature
	}

	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return 0, "", ErrMalformedSignature
	}
	return ts, macPart, nil
}
