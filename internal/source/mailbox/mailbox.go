// Package mailbox pulls weekly MLS vendor e-mails from the mailbox relay
// API and turns the first recognized one into a raw intake payload.
package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"draftbot/internal/config"
	"draftbot/internal/domain"
	"draftbot/internal/mls"
)

// ErrNoPayload is returned when no unread message passes the sender and
// subject gates.
var ErrNoPayload = fmt.Errorf("no mls payload in mailbox")

type Source struct {
	client         *http.Client
	baseURL        string
	token          string
	allowedSenders []string
	allowedDomains []string
	maxAttempts    int
	initialBackoff time.Duration
	logger         *slog.Logger
}

func New(cfg config.MailboxConfig, logger *slog.Logger) *Source {
	return &Source{
		client:         &http.Client{Timeout: cfg.Timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		allowedSenders: cfg.AllowedSenders,
		allowedDomains: cfg.AllowedDomains,
		maxAttempts:    cfg.Retry.MaxAttempts,
		initialBackoff: cfg.Retry.InitialBackoff,
		logger:         logger.With("source", "mailbox"),
	}
}

// FetchPayload scans unread messages newest first and returns the first one
// that passes the sender allowlist and carries a recognized MLS subject.
// A CSV attachment wins over the message body; without one the HTML body is
// the payload.
func (s *Source) FetchPayload(ctx context.Context) (*domain.MLSPayload, error) {
	messages, err := s.listUnread(ctx)
	if err != nil {
		return nil, err
	}

	for _, msg := range messages {
		if !s.senderAllowed(msg.From) {
			s.logger.Debug("skipping message from unlisted sender", "from", msg.From)
			continue
		}

		kind, ok := mls.ClassifyIntake(msg.Subject)
		if !ok {
			continue
		}

		payload, err := s.extract(msg, kind)
		if err != nil {
			s.logger.Warn("skipping unreadable message", "id", msg.ID, "error", err)
			continue
		}

		s.markRead(ctx, msg.ID)
		return payload, nil
	}

	return nil, ErrNoPayload
}

func (s *Source) extract(msg Message, kind domain.MLSKind) (*domain.MLSPayload, error) {
	for _, att := range msg.Attachments {
		if !isCSV(att) {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			return nil, fmt.Errorf("decode attachment %s: %w", att.Filename, err)
		}
		return &domain.MLSPayload{Kind: kind, Subject: msg.Subject, Raw: string(raw)}, nil
	}

	if msg.BodyHTML != "" {
		return &domain.MLSPayload{Kind: kind, Subject: msg.Subject, Raw: msg.BodyHTML, HTML: true}, nil
	}
	if msg.BodyText != "" {
		return &domain.MLSPayload{Kind: kind, Subject: msg.Subject, Raw: msg.BodyText}, nil
	}
	return nil, fmt.Errorf("message %s has no usable body", msg.ID)
}

func isCSV(att Attachment) bool {
	if strings.EqualFold(att.MIMEType, "text/csv") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(att.Filename), ".csv")
}

func (s *Source) senderAllowed(from string) bool {
	if len(s.allowedSenders) == 0 && len(s.allowedDomains) == 0 {
		return true
	}

	addr := strings.ToLower(strings.TrimSpace(from))
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.Trim(addr[i+1:], "<> ")
	}

	for _, sender := range s.allowedSenders {
		if strings.EqualFold(addr, sender) {
			return true
		}
	}
	for _, domainName := range s.allowedDomains {
		if strings.HasSuffix(addr, "@"+strings.ToLower(domainName)) {
			return true
		}
	}
	return false
}

func (s *Source) listUnread(ctx context.Context) ([]Message, error) {
	url := s.baseURL + "/v1/messages?unread=true&limit=10"

	var resp *listResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doList(ctx, url)
		if err == nil {
			return resp.Messages, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("mailbox request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doList(ctx context.Context, url string) (*listResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &list, nil
}

// markRead is best-effort; a failure means the message is seen again next
// week and discarded as a duplicate downstream.
func (s *Source) markRead(ctx context.Context, id string) {
	url := fmt.Sprintf("%s/v1/messages/%s/read", s.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("mark read failed", "id", id, "error", err)
		return
	}
	resp.Body.Close()
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	return backoff
}
