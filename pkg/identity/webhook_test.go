package identity

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"
)

var testWebhookKey = []byte("identity-webhook-key")

func signedHeader(payload []byte, id string, at time.Time) http.Header {
	ts := strconv.FormatInt(at.Unix(), 10)
	h := http.Header{}
	h.Set(HeaderWebhookID, id)
	h.Set(HeaderWebhookTimestamp, ts)
	h.Set(HeaderWebhookSignature, "v1,bm90LWl0 v1,"+SignWebhook(testWebhookKey, id, ts, payload))
	return h
}

func TestVerifyWebhook(t *testing.T) {
	secret := "whsec_" + base64.StdEncoding.EncodeToString(testWebhookKey)
	payload := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	now := time.Unix(1_750_000_000, 0)

	if err := VerifyWebhook(secret, signedHeader(payload, "msg_1", now), payload, now.Add(time.Minute)); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	cases := []struct {
		name   string
		header http.Header
		body   []byte
		want   error
	}{
		{name: "missing headers", header: http.Header{}, body: payload, want: ErrWebhookHeaders},
		{name: "stale", header: signedHeader(payload, "msg_1", now.Add(-10*time.Minute)), body: payload, want: ErrWebhookTimestamp},
		{name: "future", header: signedHeader(payload, "msg_1", now.Add(10*time.Minute)), body: payload, want: ErrWebhookTimestamp},
		{name: "tampered body", header: signedHeader(payload, "msg_1", now), body: []byte(`{"type":"user.deleted"}`), want: ErrWebhookSignature},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifyWebhook(secret, tc.header, tc.body, now)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if err := VerifyWebhook("whsec_%%%", signedHeader(payload, "msg_1", now), payload, now); err == nil {
		t.Fatalf("expected undecodable secret to fail")
	}
}
