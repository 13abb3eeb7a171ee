package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"draftbot/internal/config"
)

const defaultGraphURL = "https://graph.facebook.com/v20.0"

// Facebook posts to a page through the Graph API. Publishing is the one
// step that must never be silently skipped, so missing credentials are a
// construction error rather than a logged warning.
type Facebook struct {
	client      *http.Client
	baseURL     string
	pageID      string
	accessToken string
	logger      *slog.Logger
}

func NewFacebook(cfg config.FacebookConfig, logger *slog.Logger) (*Facebook, error) {
	if cfg.PageID == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("facebook page id and access token are required")
	}

	return &Facebook{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     defaultGraphURL,
		pageID:      cfg.PageID,
		accessToken: cfg.AccessToken,
		logger:      logger.With("publisher", "facebook"),
	}, nil
}

// ValidateCredentials makes a cheap authenticated call so a dead token
// surfaces at startup instead of on the first approval.
func (f *Facebook) ValidateCredentials(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/me?access_token=%s", f.baseURL, url.QueryEscape(f.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token validation failed: status %d", resp.StatusCode)
	}
	return nil
}

// PublishText creates a feed post. The link is attached only when it is a
// resolvable URL; synthetic drafts carry none.
func (f *Facebook) PublishText(ctx context.Context, message, link string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", f.accessToken)
	if strings.HasPrefix(link, "http") {
		form.Set("link", link)
	}

	endpoint := fmt.Sprintf("%s/%s/feed", f.baseURL, f.pageID)
	return f.post(ctx, endpoint, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// PublishPhoto uploads an image with the message as its caption.
func (f *Facebook) PublishPhoto(ctx context.Context, image []byte, caption string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("source", "post.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	if err := writer.WriteField("caption", caption); err != nil {
		return "", fmt.Errorf("write caption: %w", err)
	}
	if err := writer.WriteField("access_token", f.accessToken); err != nil {
		return "", fmt.Errorf("write token: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/photos", f.baseURL, f.pageID)
	return f.post(ctx, endpoint, &body, writer.FormDataContentType())
}

func (f *Facebook) post(ctx context.Context, endpoint string, body io.Reader, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("graph api status %d: %s", resp.StatusCode, truncateBody(payload))
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	postID := result.PostID
	if postID == "" {
		postID = result.ID
	}
	if postID == "" {
		return "", fmt.Errorf("graph api returned no post id")
	}

	f.logger.Info("published to facebook", "post_id", postID)
	return postID, nil
}

func truncateBody(b []byte) string {
	const max = 256
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
