package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draftbot/internal/config"
	"draftbot/internal/domain"
)

func newTestSource(t *testing.T, messages []Message) *Source {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(listResponse{Messages: messages})
	}))
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(config.MailboxConfig{
		BaseURL:        server.URL,
		Token:          "secret",
		AllowedDomains: []string{"mlsvendor.com"},
		Timeout:        time.Second,
		Retry:          config.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond},
	}, logger)
}

func TestFetchPayload_CSVAttachmentWinsOverBody(t *testing.T) {
	csv := "Active,Pending\n40,11\n"
	src := newTestSource(t, []Message{
		{
			ID:       "m1",
			From:     "Reports <reports@mlsvendor.com>",
			Subject:  "Your Weekly Market Snapshot",
			BodyHTML: "<p>see attachment</p>",
			Attachments: []Attachment{
				{Filename: "snapshot.csv", MIMEType: "text/csv", Content: base64.StdEncoding.EncodeToString([]byte(csv))},
			},
		},
	})

	payload, err := src.FetchPayload(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.MLSMarket, payload.Kind)
	assert.Equal(t, csv, payload.Raw)
	assert.False(t, payload.HTML)
}

func TestFetchPayload_HTMLBodyFallback(t *testing.T) {
	src := newTestSource(t, []Message{
		{
			ID:       "m2",
			From:     "reports@mlsvendor.com",
			Subject:  "New Listings This Week",
			BodyHTML: "<div>$577,777 ... MLS #O6384771</div>",
		},
	})

	payload, err := src.FetchPayload(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.MLSListings, payload.Kind)
	assert.True(t, payload.HTML)
}

func TestFetchPayload_UnlistedSenderSkipped(t *testing.T) {
	src := newTestSource(t, []Message{
		{ID: "m3", From: "phish@evil.test", Subject: "Your Weekly Market Snapshot", BodyHTML: "<p>x</p>"},
	})

	_, err := src.FetchPayload(context.Background())

	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestFetchPayload_UnrecognizedSubjectSkipped(t *testing.T) {
	src := newTestSource(t, []Message{
		{ID: "m4", From: "reports@mlsvendor.com", Subject: "Happy holidays!", BodyHTML: "<p>x</p>"},
	})

	_, err := src.FetchPayload(context.Background())

	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestFetchPayload_FirstRecognizedMessageWins(t *testing.T) {
	src := newTestSource(t, []Message{
		{ID: "m5", From: "reports@mlsvendor.com", Subject: "Open house invitation", BodyHTML: "<p>x</p>"},
		{ID: "m6", From: "reports@mlsvendor.com", Subject: "New Listings This Week", BodyHTML: "<p>listings</p>"},
	})

	payload, err := src.FetchPayload(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.MLSListings, payload.Kind)
	assert.Equal(t, "<p>listings</p>", payload.Raw)
}

func TestSenderAllowed(t *testing.T) {
	src := &Source{
		allowedSenders: []string{"agent@broker.com"},
		allowedDomains: []string{"mlsvendor.com"},
	}

	assert.True(t, src.senderAllowed("agent@broker.com"))
	assert.True(t, src.senderAllowed("Agent <AGENT@BROKER.COM>"))
	assert.True(t, src.senderAllowed("noreply@mlsvendor.com"))
	assert.False(t, src.senderAllowed("noreply@mlsvendor.com.evil.test"))
	assert.False(t, src.senderAllowed("someone@else.com"))
}
