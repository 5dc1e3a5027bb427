package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/dghubble/oauth1"
	"github.com/sony/gobreaker"

	"github.com/airaware/aqibot/internal/common"
	"github.com/airaware/aqibot/internal/httpx"
)

// ErrDuplicate is returned when the platform rejects a post because an
// identical one already exists. Daily jobs can hit this on retriggers.
var ErrDuplicate = errors.New("duplicate post")

// Credentials is the 4-tuple of Twitter user-context secrets for one account.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Complete reports whether all four values are present.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Publisher posts a text message to a social account and returns the
// platform's ID for the created post.
type Publisher interface {
	Post(ctx context.Context, text string) (string, error)
}

// TwitterPublisher posts via the Twitter API v2 create-tweet endpoint with
// OAuth1 user-context signing.
type TwitterPublisher struct {
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewTwitterPublisher builds a publisher for one credential set. The base
// client, when given, carries timeouts for the signing client.
func NewTwitterPublisher(base *http.Client, creds Credentials) *TwitterPublisher {
	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)

	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth1.HTTPClient, base)
	}
	signing := config.Client(ctx, token)

	return &TwitterPublisher{
		baseURL: "https://api.twitter.com/2/tweets",
		httpCfg: httpx.ClientConfig{
			Client:  signing,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit: httpx.NewBreaker("twitter"),
	}
}

// WithBaseURL overrides the API endpoint; used by tests.
func (p *TwitterPublisher) WithBaseURL(u string) *TwitterPublisher {
	p.baseURL = u
	return p
}

func (p *TwitterPublisher) Post(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", err
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, p.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := httpx.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		if resp == nil {
			return "", err
		}
		defer resp.Body.Close()

		// A 403 mentioning duplicate content means the post already exists.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusForbidden && common.HasAnyFold(string(raw), "duplicate") {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("create tweet failed: %w: %s", err, string(raw))
	}
	defer resp.Body.Close()

	var payload struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Data.ID == "" {
		return "", fmt.Errorf("create tweet response missing id")
	}

	return payload.Data.ID, nil
}

// DryRunPublisher logs the post instead of sending it. This is the default
// until posting is explicitly enabled.
type DryRunPublisher struct {
	Account string
}

func (p *DryRunPublisher) Post(_ context.Context, text string) (string, error) {
	log.Printf("dry run (%s): post would be published:\n%s", p.Account, text)
	return "dry-run", nil
}
