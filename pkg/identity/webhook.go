package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Header names the identity provider's webhook relay signs with.
const (
	HeaderWebhookID        = "svix-id"
	HeaderWebhookTimestamp = "svix-timestamp"
	HeaderWebhookSignature = "svix-signature"
)

// WebhookTolerance bounds how far a delivery timestamp may drift from now.
const WebhookTolerance = 5 * time.Minute

const secretPrefix = "whsec_"

var (
	ErrWebhookHeaders   = errors.New("webhook signature headers missing")
	ErrWebhookTimestamp = errors.New("webhook timestamp outside tolerance")
	ErrWebhookSignature = errors.New("webhook signature mismatch")
)

// VerifyWebhook checks the relay signature over "<id>.<timestamp>.<payload>".
// The signature header may carry several space separated "v1,<base64>" entries;
// any match is accepted.
func VerifyWebhook(secret string, header http.Header, payload []byte, now time.Time) error {
	id := strings.TrimSpace(header.Get(HeaderWebhookID))
	ts := strings.TrimSpace(header.Get(HeaderWebhookTimestamp))
	sigs := strings.TrimSpace(header.Get(HeaderWebhookSignature))
	if id == "" || ts == "" || sigs == "" {
		return ErrWebhookHeaders
	}

	seconds, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookTimestamp, err)
	}
	sent := time.Unix(seconds, 0)
	if now.Sub(sent) > WebhookTolerance || sent.Sub(now) > WebhookTolerance {
		return ErrWebhookTimestamp
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return err
	}
	expected := SignWebhook(key, id, ts, payload)
	for _, entry := range strings.Fields(sigs) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrWebhookSignature
}

// SignWebhook returns the base64 v1 signature for a delivery.
func SignWebhook(key []byte, id, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func decodeSecret(secret string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(secret), secretPrefix)
	if trimmed == "" {
		return nil, errors.New("webhook secret is required")
	}
	key, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode webhook secret: %w", err)
	}
	return key, nil
}
