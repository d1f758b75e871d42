package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiClient asks the generative-language API for candidate IMDb ids.
// The upstream has no schema-enforcement guarantee in every configuration,
// so responses go through an ordered list of parse strategies before the
// call is declared malformed.
type geminiClient struct {
	apiKey  string
	model   string
	httpc   *http.Client
	limiter *rate.Limiter
}

func newGeminiClient(apiKey string, httpc *http.Client) *geminiClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &geminiClient{
		apiKey:  strings.TrimSpace(apiKey),
		model:   "gemini-3-flash-preview",
		httpc:   httpc,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

func (c *geminiClient) isConfigured() bool {
	return c.apiKey != ""
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// candidateIDs requests poolSize unique IMDb ids for the query. The page
// hint is advisory only: the model is trusted, but not guaranteed, to vary
// its answer per page.
func (c *geminiClient) candidateIDs(ctx context.Context, genre, year string, page, poolSize int) ([]string, error) {
	if !c.isConfigured() {
		return nil, errors.New("gemini api key not configured")
	}

	prompt := fmt.Sprintf(`Task: Provide a JSON array of exactly %d unique IMDb IDs (starting with 'tt') for real movies.
Target Genre: %s
Target Year: %s
Page Index: %d
Constraint: Only return movies with known high-quality posters. Return ONLY the raw JSON array.`,
		poolSize, genre, year, page)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", geminiBaseURL, c.model, c.apiKey)
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.7,
			MaxOutputTokens:  2048,
			ResponseMIMEType: "application/json",
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	text, err := c.generate(ctx, endpoint, bodyBytes)
	if err != nil {
		return nil, err
	}

	ids, err := parseIDArray(text)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// generate posts the request and returns the first candidate's text,
// retrying transient failures with backoff.
func (c *geminiClient) generate(ctx context.Context, endpoint string, bodyBytes []byte) (string, error) {
	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return "", fmt.Errorf("create gemini request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			log.Printf("[gemini] http error (attempt %d/3): %v", attempt+1, err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("gemini request failed: status %d", resp.StatusCode)
			log.Printf("[gemini] rate limited or server error (attempt %d/3): status %d", attempt+1, resp.StatusCode)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return "", fmt.Errorf("gemini API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var geminiResp geminiResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&geminiResp)
		resp.Body.Close()
		if decodeErr != nil {
			return "", fmt.Errorf("decode gemini response: %w", decodeErr)
		}
		if geminiResp.Error != nil {
			return "", fmt.Errorf("gemini API error: %s", geminiResp.Error.Message)
		}
		if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
			return "", errors.New("gemini returned empty response")
		}
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", fmt.Errorf("gemini request failed after 3 attempts: %w", lastErr)
}

var bracketArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// idParseStrategies are tried in order until one yields a non-empty array.
// The lenient fallbacks exist because the upstream sometimes wraps the array
// in prose or a markdown code fence.
var idParseStrategies = []struct {
	name  string
	parse func(string) ([]string, bool)
}{
	{"direct", parseIDsDirect},
	{"fence", parseIDsFenced},
	{"bracket", parseIDsBracket},
}

// parseIDArray extracts a JSON array of id strings from free-form model
// output. Returns ErrMalformedResponse when no strategy succeeds.
func parseIDArray(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	for _, strat := range idParseStrategies {
		if ids, ok := strat.parse(trimmed); ok {
			return ids, nil
		}
	}
	return nil, fmt.Errorf("%w: no JSON id array in model output", ErrMalformedResponse)
}

func parseIDsDirect(text string) ([]string, bool) {
	var ids []string
	if err := json.Unmarshal([]byte(text), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func parseIDsFenced(text string) ([]string, bool) {
	cleaned := strings.TrimPrefix(text, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return parseIDsDirect(strings.TrimSpace(cleaned))
}

func parseIDsBracket(text string) ([]string, bool) {
	match := bracketArrayRe.FindString(text)
	if match == "" {
		return nil, false
	}
	return parseIDsDirect(match)
}
