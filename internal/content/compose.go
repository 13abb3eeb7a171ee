package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"draftbot/internal/domain"
)

const (
	snippetMaxLen = 140
	snippetMinLen = 20
)

// boilerplateExpr matches scraper garbage that sometimes lands in RSS/HTML
// snippets instead of article text.
var boilerplateExpr = regexp.MustCompile(`(?i)enable javascript|continue reading|subscribe (?:now|today)|accept cookies|sign in to read`)

// DraftContent is the composed, not-yet-persisted body of a draft.
type DraftContent struct {
	Type         domain.DraftType
	Headline     string
	Bullets      []string
	LocalContext string
}

// Composer renders draft bodies and publish messages for one community.
type Composer struct {
	Community string
	SignOff   []string
	rules     Rules
}

// NewComposer binds the classifier rules used for category assignment.
func NewComposer(community string, signOff []string, rules Rules) *Composer {
	return &Composer{Community: community, SignOff: signOff, rules: rules}
}

// SanitizeSnippet drops snippets that are too short to be informative or
// that match known boilerplate, returning "" so no snippet bullet is built.
func SanitizeSnippet(snippet string) string {
	trimmed := strings.TrimSpace(snippet)
	if len(trimmed) < snippetMinLen {
		return ""
	}
	if boilerplateExpr.MatchString(trimmed) {
		return ""
	}
	return trimmed
}

// FromCandidate builds the content for a news-path draft. No speculative
// lines: a bullet only exists when the source provided the material for it.
func (c *Composer) FromCandidate(candidate domain.CandidateItem) DraftContent {
	headline := strings.TrimSpace(candidate.Title)
	snippet := SanitizeSnippet(candidate.Snippet)

	var bullets []string
	if snippet != "" {
		bullets = append(bullets, "📌 "+truncate(snippet, snippetMaxLen))
	}
	bullets = append(bullets, "📰 Source: "+candidate.SourceName)

	return DraftContent{
		Type:     c.rules.ClassifyType(candidate),
		Headline: headline,
		Bullets:  bullets,
	}
}

// MarketContent builds the weekly market snapshot body. A nil SoldLast30
// surfaces as NEEDS REVIEW rather than a fabricated zero.
func (c *Composer) MarketContent(stats domain.MarketStats) DraftContent {
	bullets := []string{
		fmt.Sprintf("🏠 Active Homes: %d", stats.ActiveCount),
		fmt.Sprintf("✅ Sold Last 30 Days: %s", optionalFigure(stats.SoldLast30)),
		fmt.Sprintf("💰 Median Sold Price: $%s", comma(stats.MedianSoldPrice)),
		fmt.Sprintf("⏱️ Avg Days on Market: %d", stats.AvgDaysOnMarket),
		fmt.Sprintf("📉 Price Reductions: %d", stats.PriceReductions),
	}

	return DraftContent{
		Type:     domain.TypeMarket,
		Headline: c.Community + " Weekly Market Snapshot",
		Bullets:  bullets,
	}
}

// ListingsContent builds the weekly new-listings body including the featured
// (highest-priced) listing summary line.
func (c *Composer) ListingsContent(listings []domain.Listing, snapshot domain.ListingsRenderPayload) DraftContent {
	lines := []string{
		c.Community + " Weekly Market Update",
		"",
		fmt.Sprintf("New Listings: %d", snapshot.NewListingsCount),
		fmt.Sprintf("Median Sold Price: $%s", comma(snapshot.MedianSoldPrice)),
		fmt.Sprintf("Avg Days on Market: %d", snapshot.AvgDaysOnMarket),
		fmt.Sprintf("Price Reductions: %d", snapshot.PriceReductions),
		"",
		"Hottest Listing: " + featuredLine(listings),
	}
	if len(c.SignOff) > 0 {
		lines = append(lines, "")
		lines = append(lines, c.SignOff...)
	}

	return DraftContent{
		Type:     domain.TypeListings,
		Headline: c.Community + " New Listings This Week",
		Bullets:  lines,
	}
}

// FormatPublishMessage flattens a stored draft into the outbound post text.
func FormatPublishMessage(draft *domain.Draft) string {
	parts := []string{draft.Headline, draft.Bullets}
	if draft.LocalContext != "" {
		parts = append(parts, draft.LocalContext)
	}
	return strings.Join(parts, "\n")
}

func featuredLine(listings []domain.Listing) string {
	featured := domain.Featured(listings)
	if featured == nil {
		return "No featured listing available"
	}
	return fmt.Sprintf("%s - $%s | %sbd/%sba | %s sqft",
		featured.Address,
		comma(featured.Price),
		dashFigure(featured.Beds),
		dashFigure(featured.Baths),
		optionalComma(featured.Sqft),
	)
}

func dashFigure(value *int) string {
	if value == nil {
		return "—"
	}
	return strconv.Itoa(*value)
}

func optionalFigure(value *int) string {
	if value == nil {
		return "NEEDS REVIEW"
	}
	return strconv.Itoa(*value)
}

func optionalComma(value *int) string {
	if value == nil {
		return "—"
	}
	return comma(*value)
}

func comma(n int) string {
	s := strconv.Itoa(n)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if negative {
		return "-" + s
	}
	return s
}

// truncate cuts at a rune boundary so a multibyte character is dropped
// whole rather than split into invalid bytes.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
