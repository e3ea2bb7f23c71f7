// Package identity exchanges stored client credentials for a bearer token
// using the OAuth2 client-credentials grant.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const tokenRequestTimeout = 10 * time.Second

type Client struct {
	tokenURL     string
	clientID     string
	clientSecret string
	logger       *zap.Logger
	HTTPClient   *http.Client
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func New(logger *zap.Logger, tokenURL, clientID, clientSecret string) *Client {
	return &Client{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
		HTTPClient: &http.Client{
			Timeout: tokenRequestTimeout,
		},
	}
}

// Token requests a fresh access token from the identity provider.
func (c *Client) Token(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("requesting access token", zap.String("url", c.tokenURL), zap.String("client_id", c.clientID))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: bad status: %s", resp.Status)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}

	if strings.TrimSpace(token.AccessToken) == "" {
		return "", errors.New("identity provider returned an empty access token")
	}

	return token.AccessToken, nil
}
