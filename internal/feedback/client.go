// Package feedback talks to the hosted text-generation service that writes
// personalized study feedback. The service is opaque, slow, and allowed to
// fail; every failure collapses into domain.ErrFeedbackUnavailable so the
// attempt flow can render a degraded state instead of blocking.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"prep-quiz-service/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a feedback client with sane timeouts.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   3 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Generate posts the missed-question payload and returns the generated
// feedback text.
func (c *Client) Generate(ctx context.Context, req domain.FeedbackRequest) (domain.Feedback, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("%w: marshal request: %v", domain.ErrFeedbackUnavailable, err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "feedback")
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("%w: bad base url: %v", domain.ErrFeedbackUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("%w: build request: %v", domain.ErrFeedbackUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("%w: %v", domain.ErrFeedbackUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Feedback{}, fmt.Errorf("%w: status %d", domain.ErrFeedbackUnavailable, resp.StatusCode)
	}

	var fb domain.Feedback
	if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
		return domain.Feedback{}, fmt.Errorf("%w: decode response: %v", domain.ErrFeedbackUnavailable, err)
	}
	return fb, nil
}
