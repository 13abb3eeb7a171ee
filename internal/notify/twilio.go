package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"draftbot/internal/config"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// Twilio sends the approval-request SMS. Notification is a best-effort side
// channel: without credentials the notifier degrades to a log line so local
// runs work without a Twilio account.
type Twilio struct {
	client     *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
	to         string
	logger     *slog.Logger
}

func NewTwilio(cfg config.TwilioConfig, logger *slog.Logger) *Twilio {
	return &Twilio{
		client:     &http.Client{Timeout: 10 * time.Second},
		baseURL:    twilioAPIBase,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		to:         cfg.ApproverPhone,
		logger:     logger.With("notifier", "twilio"),
	}
}

func (t *Twilio) configured() bool {
	return t.accountSID != "" && t.authToken != "" && t.from != "" && t.to != ""
}

func (t *Twilio) NotifyNewDraft(ctx context.Context, draftID int64, headline string) error {
	if !t.configured() {
		t.logger.Warn("twilio not configured, skipping approval sms", "draft_id", draftID)
		return nil
	}

	body := fmt.Sprintf("New draft #%d: %s\nReply A%d to approve or R%d to reject.",
		draftID, headline, draftID, draftID)
	return t.send(ctx, body)
}

func (t *Twilio) send(ctx context.Context, body string) error {
	form := url.Values{}
	form.Set("To", t.to)
	form.Set("From", t.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio status %d", resp.StatusCode)
	}

	t.logger.Info("sent approval sms", "to", t.to)
	return nil
}
