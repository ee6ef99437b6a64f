// Package hf implements sentiment.Classifier against a hosted
// text-classification inference endpoint (sst-2 style response shape).
package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/pulse/internal/sentiment"
)

// Client calls an inference endpoint that scores text as POSITIVE/NEGATIVE.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// New creates a classifier client for the given inference endpoint. The token
// is sent as a bearer credential when non-empty.
func New(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type request struct {
	Inputs string `json:"inputs"`
}

type scoredLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifyText submits text and returns the highest-confidence label.
func (c *Client) ClassifyText(ctx context.Context, text string) (sentiment.Label, float64, error) {
	body, err := json.Marshal(request{Inputs: text})
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("inference api error %d: %s", resp.StatusCode, string(respBody))
	}

	return parseResponse(respBody)
}

// parseResponse handles both response shapes the hosted API produces:
// [[{label,score},...]] for single inputs and [{label,score},...] from
// some deployments.
func parseResponse(body []byte) (sentiment.Label, float64, error) {
	var nested [][]scoredLabel
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		return pickTop(nested[0])
	}

	var flat []scoredLabel
	if err := json.Unmarshal(body, &flat); err == nil {
		return pickTop(flat)
	}

	return "", 0, fmt.Errorf("unexpected response shape: %s", string(body))
}

func pickTop(scores []scoredLabel) (sentiment.Label, float64, error) {
	if len(scores) == 0 {
		return "", 0, fmt.Errorf("empty classification result")
	}

	top := scores[0]
	for _, s := range scores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}

	switch strings.ToUpper(top.Label) {
	case "POSITIVE", "LABEL_1":
		return sentiment.LabelPositive, top.Score, nil
	case "NEGATIVE", "LABEL_0":
		return sentiment.LabelNegative, top.Score, nil
	case "NEUTRAL":
		return sentiment.LabelNeutral, top.Score, nil
	default:
		return "", 0, fmt.Errorf("unknown label %q", top.Label)
	}
}
