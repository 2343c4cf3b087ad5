package usecase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	apperrors "github.com/allisson/outreach/internal/errors"
)

// Signature errors surfaced to the webhook handler.
var (
	// ErrMissingSignature indicates the request carried no signature header.
	ErrMissingSignature = apperrors.Wrap(apperrors.ErrUnauthorized, "missing webhook signature")

	// ErrInvalidSignature indicates the signature does not match the body.
	ErrInvalidSignature = apperrors.Wrap(apperrors.ErrUnauthorized, "invalid webhook signature")
)

// ComputeSignature returns the hex HMAC-SHA256 of the body under the secret.
func ComputeSignature(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the webhook signature over the raw request body.
// The comparison is constant time.
func (u *correlationUseCase) VerifySignature(body []byte, signature string) error {
	if len(u.webhookSecret) == 0 {
		return apperrors.Wrap(apperrors.ErrUnavailable, "webhook secret is not configured")
	}
	if signature == "" {
		return ErrMissingSignature
	}

	expected := ComputeSignature(u.webhookSecret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
