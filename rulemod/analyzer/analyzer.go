// Package analyzer is the client for the external content-analysis service
// that produces spam/toxicity/adult scores and language detection. The engine
// never calls it on the evaluation path; the daemon calls it while building
// the context bundle for an incoming event, and may serve repeated texts from
// cache.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/haven-social/warden/internal/util"
)

// Scores for one piece of text. Nil pointers mean the analyzer did not
// produce that signal; they resolve as "unknown" fields downstream, never as
// zero.
type Scores struct {
	SpamScore     *float64 `json:"spamScore,omitempty"`
	ToxicityScore *float64 `json:"toxicityScore,omitempty"`
	AdultScore    *float64 `json:"adultScore,omitempty"`
	Language      string   `json:"language,omitempty"`
}

type Client interface {
	AnalyzeText(ctx context.Context, text string) (*Scores, error)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Talks to the analyzer's HTTP API, with retries and client-side rate
// limiting to stay under the service's contract.
type HTTPClient struct {
	Host     string
	APIToken string
	Client   *http.Client
	Limiter  *rate.Limiter
}

func NewHTTPClient(host, apiToken string, ratelimitQPS int) *HTTPClient {
	if ratelimitQPS <= 0 {
		ratelimitQPS = 10
	}
	return &HTTPClient{
		Host:     host,
		APIToken: apiToken,
		Client:   util.RobustHTTPClient(),
		Limiter:  rate.NewLimiter(rate.Limit(ratelimitQPS), ratelimitQPS),
	}
}

func (c *HTTPClient) AnalyzeText(ctx context.Context, text string) (*Scores, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer request failed. status=%d", resp.StatusCode)
	}
	var scores Scores
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("parsing analyzer response: %w", err)
	}
	return &scores, nil
}

// Returns the same scores for every text; for tests and local development
// without a running analyzer.
type StaticClient struct {
	Scores Scores
	Err    error
}

func (c *StaticClient) AnalyzeText(ctx context.Context, text string) (*Scores, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	s := c.Scores
	return &s, nil
}
