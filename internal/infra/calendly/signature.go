package calendly

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/finzie/booking-coordinator/internal/httperr"
)

const SignatureHeader = "Calendly-Webhook-Signature"

// Verifier checks the t=<unix>,v1=<hex> signature Calendly sends with each
// webhook.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

func (v *Verifier) Verify(header string, body []byte) error {
	if len(v.secret) == 0 {
		return httperr.Unauthorized("webhook_secret_missing", "Webhook signing key is not configured")
	}
	if header == "" {
		return httperr.Unauthorized("missing_signature", "Missing webhook signature")
	}

	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = val
		case "v1":
			sig = val
		}
	}
	if ts == "" || sig == "" {
		return httperr.Unauthorized("invalid_signature", "Malformed webhook signature")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return httperr.Unauthorized("invalid_signature", "Malformed webhook signature")
	}
	age := v.now().Sub(time.Unix(unix, 0))
	if age < 0 {
		age = -age
	}
	if v.tolerance > 0 && age > v.tolerance {
		return httperr.Unauthorized("stale_signature", "Webhook signature is too old")
	}

	got, err := hex.DecodeString(sig)
	if err != nil {
		return httperr.Unauthorized("invalid_signature", "Malformed webhook signature")
	}
	if !hmac.Equal(got, v.sign(ts, body)) {
		return httperr.Unauthorized("invalid_signature", "Webhook signature does not match")
	}
	return nil
}

func (v *Verifier) sign(ts string, body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignatureFor builds a header value for body signed at t.
func SignatureFor(secret string, t time.Time, body []byte) string {
	v := NewVerifier(secret, 0)
	ts := strconv.FormatInt(t.Unix(), 10)
	return "t=" + ts + ",v1=" + hex.EncodeToString(v.sign(ts, body))
}
