package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainerrors "adops/contexts/sales-pipeline/trigger-engine/domain/errors"
)

func TestDeliverSignsBody(t *testing.T) {
	body := []byte(`{"event_id":"evt-1"}`)
	var gotSignature, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(time.Second)
	if err := client.Deliver(context.Background(), server.URL, "secret-1", body); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if string(gotBody) != string(body) {
		t.Fatalf("body altered in flight: %s", gotBody)
	}
	if gotSignature != Sign("secret-1", body) {
		t.Fatalf("signature mismatch: %s", gotSignature)
	}
}

func TestDeliverFailsOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(time.Second)
	err := client.Deliver(context.Background(), server.URL, "secret-1", []byte(`{}`))
	if !errors.Is(err, domainerrors.ErrWebhookDelivery) {
		t.Fatalf("expected ErrWebhookDelivery, got %v", err)
	}
}

func TestSignIsDeterministic(t *testing.T) {
	body := []byte(`{"a":1}`)
	if Sign("s", body) != Sign("s", body) {
		t.Fatalf("same inputs must sign identically")
	}
	if Sign("s", body) == Sign("other", body) {
		t.Fatalf("different secrets must sign differently")
	}
}
