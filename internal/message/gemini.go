package message

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/airaware/aqibot/internal/airquality"
	"github.com/airaware/aqibot/internal/httpx"
)

// Generator produces a short care message for an air-quality category.
type Generator interface {
	CareMessage(ctx context.Context, cat airquality.Category) (string, error)
}

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiGenerator calls the Google Generative Language API to write the
// health-tip line appended to every post.
type GeminiGenerator struct {
	apiKey  string
	model   string
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewGeminiGenerator(client *http.Client, apiKey string) *GeminiGenerator {
	return &GeminiGenerator{
		apiKey:  apiKey,
		model:   defaultGeminiModel,
		baseURL: "https://generativelanguage.googleapis.com/v1",
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit: httpx.NewBreaker("gemini"),
	}
}

// WithBaseURL overrides the API endpoint; used by tests.
func (g *GeminiGenerator) WithBaseURL(u string) *GeminiGenerator {
	g.baseURL = u
	return g
}

// WithModel overrides the default model ID.
func (g *GeminiGenerator) WithModel(model string) *GeminiGenerator {
	if model != "" {
		g.model = model
	}
	return g
}

// Request/response shapes for models.generateContent. Only the fields this
// client reads or writes are declared.
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// CareMessage asks the model for a one-sentence tip matching the category.
// Callers are expected to fall back to Fallback on any error.
func (g *GeminiGenerator) CareMessage(ctx context.Context, cat airquality.Category) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini api key is not configured")
	}

	prompt := fmt.Sprintf(
		"Write a short, helpful health tip for air quality status '%s' in exactly one sentence for the purpose of tweeting. "+
			"Include practical advice like wearing masks, staying indoors, or hydration as appropriate for this air quality level. "+
			"Also add 3 hashtags related to it",
		cat,
	)

	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 60,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", g.apiKey)

		u := fmt.Sprintf("%s/models/%s:generateContent?%s", g.baseURL, g.model, values.Encode())
		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := httpx.Do(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return "", err
	}
	defer resp.Body.Close()

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response contained no candidates")
	}

	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	text = strings.Trim(text, `"'`)
	if text == "" {
		return "", fmt.Errorf("gemini response contained empty text")
	}

	return text, nil
}
