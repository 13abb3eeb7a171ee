// Package audit mirrors every created draft into a spreadsheet the agent
// reviews outside the app. The trail is convenience, not a system of
// record; the database stays authoritative.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"draftbot/internal/config"
	"draftbot/internal/domain"
)

const sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"

type Sheets struct {
	client        *http.Client
	baseURL       string
	spreadsheetID string
	sheetRange    string
	accessToken   string
	logger        *slog.Logger
}

func NewSheets(cfg config.SheetsConfig, logger *slog.Logger) *Sheets {
	return &Sheets{
		client:        &http.Client{Timeout: 10 * time.Second},
		baseURL:       sheetsAPIBase,
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    cfg.SheetRange,
		accessToken:   cfg.AccessToken,
		logger:        logger.With("audit", "sheets"),
	}
}

func (s *Sheets) configured() bool {
	return s.spreadsheetID != "" && s.accessToken != ""
}

func (s *Sheets) Append(ctx context.Context, draft *domain.Draft) error {
	if !s.configured() {
		s.logger.Debug("sheets not configured, skipping audit row", "draft_id", draft.ID)
		return nil
	}

	row := []any{
		draft.FoundAt.Format(time.RFC3339),
		draft.ID,
		string(draft.Type),
		draft.Headline,
		draft.Bullets,
		draft.LocalContext,
		draft.SourceName,
		draft.SourceURL,
		string(draft.Status),
	}

	body, err := json.Marshal(map[string]any{"values": [][]any{row}})
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED",
		s.baseURL, s.spreadsheetID, url.PathEscape(s.sheetRange))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets api status %d", resp.StatusCode)
	}

	s.logger.Debug("appended audit row", "draft_id", draft.ID)
	return nil
}
