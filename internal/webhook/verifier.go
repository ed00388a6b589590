// Package webhook verifies and dispatches provider event notifications.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Signature verification failures. The mismatch error never says which
// part disagreed; callers log a reason label, not the details.
var (
	ErrMissingSignature  = errors.New("missing signature header")
	ErrMalformedHeader   = errors.New("malformed signature header")
	ErrStaleTimestamp    = errors.New("signature timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// DefaultTolerance bounds how far a signed timestamp may drift from the
// receiver's clock, in either direction.
const DefaultTolerance = 5 * time.Minute

// Verifier checks the HMAC signature scheme used by provider callbacks:
// a header of the form "t=<unix>,v1=<hex>" where v1 is
// HMAC-SHA256(secret, "<t>.<raw body>").
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier creates a Verifier for one provider's shared secret.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify checks header against the raw request body. The body must be the
// exact bytes received; any re-serialization breaks the signature.
func (v *Verifier) Verify(header string, body []byte) error {
	if header == "" {
		return ErrMissingSignature
	}

	var ts int64
	var sigs [][]byte
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return ErrMalformedHeader
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return ErrMalformedHeader
			}
			ts = n
		case "v1":
			raw, err := hex.DecodeString(val)
			if err != nil {
				return ErrMalformedHeader
			}
			sigs = append(sigs, raw)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return ErrMalformedHeader
	}

	if d := v.now().Sub(time.Unix(ts, 0)); d > v.tolerance || d < -v.tolerance {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	want := mac.Sum(nil)

	for _, sig := range sigs {
		if hmac.Equal(sig, want) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// Sign produces a valid signature header for body at ts. Used by outbound
// test traffic and the CLI.
func (v *Verifier) Sign(ts time.Time, body []byte) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(unix))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + unix + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

// FailureReason maps a verification error to a stable metric label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingSignature):
		return "missing"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed"
	case errors.Is(err, ErrStaleTimestamp):
		return "stale"
	case errors.Is(err, ErrSignatureMismatch):
		return "mismatch"
	default:
		return "other"
	}
}
