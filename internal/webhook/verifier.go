// Package webhook receives identity-provider user events and mirrors them
// into the user store.
package webhook

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

// Signature headers sent with every delivery.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

const (
	secretPrefix     = "whsec_"
	defaultTolerance = 5 * time.Minute
)

var (
	ErrMissingHeaders   = errors.New("missing webhook signature headers")
	ErrInvalidTimestamp = errors.New("invalid webhook timestamp")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
	ErrNoMatch          = errors.New("no matching webhook signature")
)

// Verifier checks the svix signature of a delivery. The timestamp window is
// enforced here so that it follows webhook.tolerance; svix checks the HMAC.
type Verifier struct {
	wh        *svix.Webhook
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier accepts a "whsec_"-prefixed base64 signing secret.
func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	if strings.TrimPrefix(secret, secretPrefix) == "" {
		return nil, errors.New("webhook signing secret is empty")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signing secret: %w", err)
	}
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return &Verifier{wh: wh, tolerance: tolerance, now: time.Now}, nil
}

// Verify checks payload against the signature headers. Any v1 signature in
// the header list may match.
func (v *Verifier) Verify(payload []byte, headers http.Header) error {
	timestamp := headers.Get(HeaderTimestamp)
	if headers.Get(HeaderID) == "" || timestamp == "" || headers.Get(HeaderSignature) == "" {
		return ErrMissingHeaders
	}

	seconds, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	sent := time.Unix(seconds, 0)
	if now := v.now(); sent.Before(now.Add(-v.tolerance)) || sent.After(now.Add(v.tolerance)) {
		return ErrStaleTimestamp
	}

	if err := v.wh.VerifyIgnoringTimestamp(payload, headers); err != nil {
		return fmt.Errorf("%w: %v", ErrNoMatch, err)
	}
	return nil
}

// Sign returns the header value a sender would attach for payload.
func (v *Verifier) Sign(msgID string, sent time.Time, payload []byte) (string, error) {
	return v.wh.Sign(msgID, sent, payload)
}
