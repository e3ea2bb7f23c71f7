// Package gateway retrieves the job offer and candidate profile documents
// from the upstream services behind the API gateway. Both documents are
// treated as opaque JSON: their schemas are owned by the upstream services
// and flow through unchanged.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	contentType = "application/json"
	// Fixed timeout for both document fetches.
	fetchTimeout = 30 * time.Second
)

type Client struct {
	baseURL    string
	logger     *zap.Logger
	HTTPClient *http.Client
}

func New(logger *zap.Logger, baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		HTTPClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// FetchOffer returns the matching view of a job offer.
func (c *Client) FetchOffer(ctx context.Context, token, offerID string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/JOB-OFFER-SERVICE/api/v1/job-offers/%s/matching", c.baseURL, offerID)
	return c.getJSON(ctx, token, url)
}

// FetchProfile returns the matching view of a candidate profile.
func (c *Client) FetchProfile(ctx context.Context, token, candidateID, profileID string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/CANDIDATE-SERVICE/api/v1/candidates/%s/profiles/%s/matching", c.baseURL, candidateID, profileID)
	return c.getJSON(ctx, token, url)
}

func (c *Client) getJSON(ctx context.Context, token, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("fetching document", zap.String("url", url))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: bad status: %s", url, resp.Status)
	}

	return json.RawMessage(data), nil
}
