package trigger_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"regenq/internal/api"
	"regenq/internal/config"
	"regenq/internal/queue"
	"regenq/internal/trigger"
)

func TestNewReturnsNoopWhenURLMissing(t *testing.T) {
	tr := trigger.New(config.Trigger{})
	if tr.Enabled() {
		t.Fatal("expected disabled trigger")
	}
	if err := tr.Fire(context.Background(), "tok", "acme", queue.FieldAll); err != nil {
		t.Fatalf("expected noop trigger to return nil, got %v", err)
	}
}

func TestPostWebhookSendsJSONAndBearer(t *testing.T) {
	var (
		got    api.TriggerRequest
		auth   string
		method string
		ctype  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		auth = r.Header.Get("Authorization")
		ctype = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	tr := trigger.New(config.Trigger{URL: server.URL, Method: "post"})
	if err := tr.Fire(context.Background(), "secret", "acme", queue.FieldPricing); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if method != http.MethodPost || ctype != "application/json" {
		t.Fatalf("unexpected method %q content type %q", method, ctype)
	}
	if auth != "Bearer secret" {
		t.Fatalf("expected bearer forwarded, got %q", auth)
	}
	if got.Slug != "acme" || got.Field != "pricing" {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestGetWebhookSendsQuery(t *testing.T) {
	var slug, field string
	var hasField bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		slug = r.URL.Query().Get("slug")
		field = r.URL.Query().Get("field")
		_, hasField = r.URL.Query()["field"]
		if r.URL.Query().Get("key") != "abc" {
			t.Errorf("expected existing query preserved, got %q", r.URL.RawQuery)
		}
	}))
	defer server.Close()

	tr := trigger.New(config.Trigger{URL: server.URL + "/hook?key=abc", Method: "GET"})
	if err := tr.Fire(context.Background(), "", "acme", queue.FieldAll); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if slug != "acme" || field != "" || !hasField {
		t.Fatalf("unexpected query slug=%q field=%q present=%v", slug, field, hasField)
	}
}

func TestWebhookFailuresAreUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "worker down", http.StatusBadGateway)
	}))
	tr := trigger.New(config.Trigger{URL: server.URL})
	err := tr.Fire(context.Background(), "tok", "acme", queue.FieldAll)
	if !errors.Is(err, queue.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	server.Close()

	err = tr.Fire(context.Background(), "tok", "acme", queue.FieldAll)
	if !errors.Is(err, queue.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error after close, got %v", err)
	}
}
