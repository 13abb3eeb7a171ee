// Package market pulls aggregate housing figures from a public portal's
// market page. The figures only enrich listings drafts, so every failure
// path degrades to "no data" instead of an error.
package market

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"draftbot/internal/config"
	"draftbot/internal/domain"
)

var (
	medianExpr     = regexp.MustCompile(`(?i)median (?:sale |sold )?price of \$([\d,.]+)(K|M)?`)
	daysExpr       = regexp.MustCompile(`(?i)sell after (?:an average of )?(\d+) days`)
	soldExpr       = regexp.MustCompile(`(?i)(\d+) homes? sold`)
	belowListExpr  = regexp.MustCompile(`(?i)([\d.]+)% below list price`)
	nonNumericExpr = regexp.MustCompile(`[^0-9.]`)
)

type Redfin struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

func NewRedfin(cfg config.RedfinConfig, logger *slog.Logger) *Redfin {
	return &Redfin{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    cfg.URL,
		logger: logger.With("provider", "redfin"),
	}
}

// Fetch scrapes the market page and pulls the figures out of its summary
// prose. Returns (nil, nil) whenever the page is unreachable or the prose
// no longer matches; the caller falls back to stored history.
func (r *Redfin) Fetch(ctx context.Context) (*domain.MarketFigures, error) {
	if r.url == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; DraftBot/1.0)")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("market page unreachable", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("market page returned error", "status", resp.StatusCode)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		r.logger.Warn("market page unparseable", "error", err)
		return nil, nil
	}

	return r.parse(doc.Text()), nil
}

func (r *Redfin) parse(text string) *domain.MarketFigures {
	median, ok := parseMedian(text)
	if !ok {
		r.logger.Warn("median price phrase not found")
		return nil
	}

	days := matchInt(daysExpr, text)
	sold := matchInt(soldExpr, text)
	if days == 0 || sold == 0 {
		r.logger.Warn("market phrases incomplete", "days", days, "sold", sold)
		return nil
	}

	figures := &domain.MarketFigures{
		MedianSoldPrice: median,
		AvgDaysOnMarket: days,
		HomesSold:       sold,
	}

	// Percent below list is the closest public proxy for reduction
	// pressure; absent phrase means zero, not failure.
	if m := belowListExpr.FindStringSubmatch(text); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			figures.PriceReductions = int(pct)
		}
	}

	return figures
}

func parseMedian(text string) (int, bool) {
	m := medianExpr.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	raw := nonNumericExpr.ReplaceAllString(m[1], "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	switch strings.ToUpper(m[2]) {
	case "K":
		value *= 1_000
	case "M":
		value *= 1_000_000
	}
	return int(value), true
}

func matchInt(expr *regexp.Regexp, text string) int {
	m := expr.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
