package unipile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/linkpilot-ai/linkpilot/core/config"
	"github.com/linkpilot-ai/linkpilot/scheduler"
	"github.com/sirupsen/logrus"
)

const httpTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: httpTimeout}

// Client talks to the Unipile messaging API for LinkedIn. It implements
// scheduler.IPublisher for the dispatch engine and exposes the profile and
// post-metrics lookups the analytics snapshot uses.
type Client struct {
	dsn    string
	apiKey string
}

func NewClient(cfg config.UnipileConfig) *Client {
	return &Client{
		dsn:    strings.TrimRight(strings.TrimSpace(cfg.DSN), "/"),
		apiKey: strings.TrimSpace(cfg.APIKey),
	}
}

// Post is one LinkedIn post returned by the user-posts listing.
type Post struct {
	ID          string `json:"id"`
	SocialID    string `json:"social_id"`
	Text        string `json:"text"`
	Reactions   int    `json:"reaction_counter"`
	Comments    int    `json:"comment_counter"`
	Reposts     int    `json:"repost_counter"`
	Impressions int    `json:"impressions_counter"`
}

// Publish creates a post on the connected LinkedIn account and returns the
// provider post id. A disconnected or invalid account is reported as a
// configuration error so the dispatch engine fails the item without retrying.
func (c *Client) Publish(ctx context.Context, accountID, text string, image []byte) (string, error) {
	if accountID == "" {
		return "", &scheduler.ConfigurationError{Reason: "account id is empty"}
	}

	var resp struct {
		ID string `json:"id"`
	}
	var err error
	if len(image) > 0 {
		err = c.multipartPost(ctx, "/api/v1/posts", accountID, text, image, &resp)
	} else {
		err = c.jsonRequest(ctx, http.MethodPost, "/api/v1/posts", map[string]any{
			"account_id": accountID,
			"text":       text,
		}, &resp)
	}
	if err != nil {
		if isAccountError(err) {
			return "", &scheduler.ConfigurationError{Reason: err.Error()}
		}
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("unipile returned empty post id")
	}
	return resp.ID, nil
}

// HostedAuthURL requests a hosted auth link the user opens to connect
// LinkedIn. The callback delivers the account id to notifyURL.
func (c *Client) HostedAuthURL(ctx context.Context, notifyURL string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/api/v1/hosted/accounts/link", map[string]any{
		"type":       "LINKEDIN",
		"api_url":    c.dsn,
		"expiresOn":  "2099-01-01T00:00:00.000Z",
		"notify_url": notifyURL,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

// FollowerCount resolves the account's provider id via /users/me, then reads
// the follower count off the full profile. /users/me alone does not carry it.
func (c *Client) FollowerCount(ctx context.Context, accountID string) (int, error) {
	providerID, err := c.providerID(ctx, accountID)
	if err != nil {
		return 0, err
	}

	var resp struct {
		FollowerCount    int `json:"follower_count"`
		ConnectionsCount int `json:"connections_count"`
	}
	path := fmt.Sprintf("/api/v1/users/%s?account_id=%s", url.PathEscape(providerID), url.QueryEscape(accountID))
	if err := c.jsonRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	if resp.FollowerCount > 0 {
		return resp.FollowerCount, nil
	}
	return resp.ConnectionsCount, nil
}

// UserPosts lists the account's own posts with engagement counters.
func (c *Client) UserPosts(ctx context.Context, accountID string, limit int) ([]Post, error) {
	providerID, err := c.providerID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/api/v1/users/%s/posts?account_id=%s&limit=%d",
		url.PathEscape(providerID), url.QueryEscape(accountID), limit)

	// The endpoint answers either a bare array or an items envelope.
	var raw json.RawMessage
	if err := c.jsonRequest(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	var posts []Post
	if err := json.Unmarshal(raw, &posts); err == nil {
		return posts, nil
	}
	var envelope struct {
		Items []Post `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected posts payload: %w", err)
	}
	return envelope.Items, nil
}

func (c *Client) providerID(ctx context.Context, accountID string) (string, error) {
	var resp struct {
		ProviderID string `json:"provider_id"`
	}
	path := "/api/v1/users/me?account_id=" + url.QueryEscape(accountID)
	if err := c.jsonRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if resp.ProviderID == "" {
		return "", fmt.Errorf("unipile profile has no provider id")
	}
	return resp.ProviderID, nil
}

func (c *Client) multipartPost(ctx context.Context, path, accountID, text string, image []byte, dest any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("account_id", accountID)
	_ = w.WriteField("text", text)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="attachments"; filename="image.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(image); err != nil {
		return err
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.dsn+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-API-KEY", c.apiKey)

	return c.do(req, dest)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.dsn+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 16384))
	if resp.StatusCode >= 400 {
		logrus.Debugf("[UNIPILE] %s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)
		return &apiError{status: resp.StatusCode, body: string(data)}
	}

	if dest != nil {
		return json.Unmarshal(data, dest)
	}
	return nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("unipile request failed: status=%d body=%s", e.status, e.body)
}

// isAccountError classifies an API failure as an account problem: the account
// was never connected, the session expired, or credentials were revoked.
// These cannot succeed on retry.
func isAccountError(err error) bool {
	apiErr, ok := err.(*apiError)
	if !ok {
		return false
	}
	if apiErr.status == http.StatusUnauthorized || apiErr.status == http.StatusForbidden {
		return true
	}
	body := strings.ToLower(apiErr.body)
	return strings.Contains(body, "disconnected") ||
		strings.Contains(body, "invalid account") ||
		strings.Contains(body, "credentials")
}
