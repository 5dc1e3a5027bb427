package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testCredentials() Credentials {
	return Credentials{
		APIKey:            "ck",
		APISecret:         "cs",
		AccessToken:       "at",
		AccessTokenSecret: "as",
	}
}

func TestPostCreatesTweet(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1801234567890","text":"ok"}}`))
	}))
	defer srv.Close()

	p := NewTwitterPublisher(srv.Client(), testCredentials()).WithBaseURL(srv.URL)

	id, err := p.Post(context.Background(), "Air Quality Index for Delhi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "1801234567890" {
		t.Fatalf("unexpected post id %q", id)
	}

	if gotBody["text"] != "Air Quality Index for Delhi" {
		t.Errorf("unexpected body: %v", gotBody)
	}
	if !strings.HasPrefix(gotAuth, "OAuth ") || !strings.Contains(gotAuth, `oauth_consumer_key="ck"`) {
		t.Errorf("request not OAuth1-signed: %q", gotAuth)
	}
}

func TestPostDuplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"You are not allowed to create a Tweet with duplicate content."}`))
	}))
	defer srv.Close()

	p := NewTwitterPublisher(srv.Client(), testCredentials()).WithBaseURL(srv.URL)

	_, err := p.Post(context.Background(), "same text as yesterday")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPostOtherClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"title":"Unauthorized"}`))
	}))
	defer srv.Close()

	p := NewTwitterPublisher(srv.Client(), testCredentials()).WithBaseURL(srv.URL)

	_, err := p.Post(context.Background(), "text")
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected a non-duplicate error, got %v", err)
	}
}

func TestDryRunPublisher(t *testing.T) {
	p := &DryRunPublisher{Account: "Delhi"}
	id, err := p.Post(context.Background(), "would-be post")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "dry-run" {
		t.Fatalf("unexpected id %q", id)
	}
}
