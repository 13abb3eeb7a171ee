package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"draftbot/internal/config"
	"draftbot/internal/domain"
)

// WebPage scrapes a listing page that offers no feed. The selectors come
// from config so a broken source is fixed without a rebuild.
type WebPage struct {
	name      string
	url       string
	selectors config.SelectorsConfig
	maxItems  int
	client    *http.Client
	logger    *slog.Logger
}

func NewWebPage(cfg config.SourceConfig, timeout time.Duration, logger *slog.Logger) *WebPage {
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = 25
	}
	return &WebPage{
		name:      cfg.Name,
		url:       cfg.URL,
		selectors: cfg.Selectors,
		maxItems:  maxItems,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With("feed", cfg.Name),
	}
}

func (p *WebPage) Name() string {
	return p.name
}

func (p *WebPage) Fetch(ctx context.Context) ([]domain.CandidateItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "DraftBot/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(p.url)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var items []domain.CandidateItem
	doc.Find(p.selectors.Item).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(items) >= p.maxItems {
			return false
		}

		title := strings.TrimSpace(sel.Find(p.selectors.Title).First().Text())
		href, _ := sel.Find(p.selectors.Link).First().Attr("href")
		if title == "" || href == "" {
			return true
		}

		link := href
		if ref, err := url.Parse(href); err == nil {
			link = base.ResolveReference(ref).String()
		}

		snippet := ""
		if p.selectors.Snippet != "" {
			snippet = strings.TrimSpace(sel.Find(p.selectors.Snippet).First().Text())
		}

		items = append(items, domain.CandidateItem{
			Title:        title,
			URL:          link,
			Snippet:      snippet,
			SourceName:   p.name,
			TextForMatch: snippet,
		})
		return true
	})

	p.logger.Debug("scraped page", "items", len(items))
	return items, nil
}
