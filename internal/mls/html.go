package mls

import (
	"regexp"
	"strings"

	"draftbot/internal/domain"
)

// Vendor e-mails carry trailing boilerplate after these phrases; everything
// from the first occurrence onward is excluded before parsing.
var footerMarkers = []string{
	"unsubscribe",
	"delivered by",
	"manage your email preferences",
	"you are receiving this email",
}

var (
	scriptExpr    = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleExpr     = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	lineBreakExpr = regexp.MustCompile(`(?i)<br\s*/?>|</(?:p|div|tr|td|li|h[1-6]|table)>`)
	tagExpr       = regexp.MustCompile(`<[^>]+>`)
	spaceExpr     = regexp.MustCompile(`[ \t\x{00a0}]+`)

	// One segment per listing: a dollar amount through the next MLS
	// identifier, non-greedy so adjacent listings never merge. Text after a
	// segment's MLS number (status banners, separators) falls outside it.
	segmentExpr = regexp.MustCompile(`(?is)\$\s?[\d,]{3,}.*?mls\s*(?:#|no\.?|number)?\s*[:#-]?\s*[A-Za-z0-9-]+`)

	priceExpr  = regexp.MustCompile(`\$\s?([\d,]{3,})`)
	bedsExpr   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:bd|beds?)\b`)
	bathsExpr  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:ba|baths?)\b`)
	sqftExpr   = regexp.MustCompile(`(?i)([\d,]{3,})\s*(?:sq\.?\s*ft|sqft|sf)\b`)
	mlsExpr    = regexp.MustCompile(`(?i)mls\s*(?:#|no\.?|number)?\s*[:#-]?\s*([A-Za-z0-9-]+)`)
	statusExpr = regexp.MustCompile(`(?i)\b(New Listing|Price Change|Back on Market|Pending|Sold|Active|Coming Soon)\b`)

	// "City, ST 33541" or "City, Florida 33541" on a line of its own; the
	// line above it is the street component.
	cityStateZipExpr = regexp.MustCompile(`(?i)^[A-Za-z .'-]+,\s*[A-Za-z]{2,}\s+\d{5}(?:-\d{4})?$`)
	streetExpr       = regexp.MustCompile(`^\d+\s+\S`)

	entities = strings.NewReplacer(
		"&nbsp;", " ", "&NBSP;", " ",
		"&amp;", "&", "&AMP;", "&",
		"&quot;", `"`,
		"&#39;", "'",
		"&lt;", "<",
		"&gt;", ">",
	)
)

// ParseListingsHTML recovers listings from a vendor e-mail body with no
// stable markup. The contract is behavioral: bound the content before the
// footer, flatten to line-structured text, segment on dollar-through-MLS
// spans, then pull fields per segment and discard anything without both an
// address and a positive price. A partial segment polluting a public post is
// worse than under-reporting.
func ParseListingsHTML(html string) []domain.Listing {
	text := htmlToLines(stripFooter(html))
	lines := strings.Split(text, "\n")

	var listings []domain.Listing
	for _, segment := range segmentExpr.FindAllString(text, -1) {
		listing := extractListing(segment, lines)
		if listing.Address == "" || listing.Price <= 0 {
			continue
		}
		listings = append(listings, listing)
	}
	return listings
}

// stripFooter bounds the searchable content at the first footer marker.
func stripFooter(html string) string {
	lowered := strings.ToLower(html)
	cut := len(html)
	for _, marker := range footerMarkers {
		if idx := strings.Index(lowered, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return html[:cut]
}

// htmlToLines converts markup to plain text while preserving line structure,
// which the address heuristics depend on.
func htmlToLines(html string) string {
	text := strings.ReplaceAll(html, "\r", "")
	text = scriptExpr.ReplaceAllString(text, " ")
	text = styleExpr.ReplaceAllString(text, " ")
	text = lineBreakExpr.ReplaceAllString(text, "\n")
	text = tagExpr.ReplaceAllString(text, " ")
	text = entities.Replace(text)
	text = spaceExpr.ReplaceAllString(text, " ")

	lines := make([]string, 0, 32)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func extractListing(segment string, allLines []string) domain.Listing {
	listing := domain.Listing{
		Price:  parseFigure(matchGroup(priceExpr, segment)),
		Beds:   parseOptionalFigure(matchGroup(bedsExpr, segment)),
		Baths:  parseOptionalFigure(matchGroup(bathsExpr, segment)),
		Sqft:   parseOptionalFigure(matchGroup(sqftExpr, segment)),
		Status: matchGroup(statusExpr, segment),
	}

	if m := mlsExpr.FindStringSubmatch(segment); m != nil {
		listing.MLSNumber = m[1]
	}
	if listing.Status == "" {
		listing.Status = "Active"
	}

	listing.Address = extractAddress(segment, allLines)
	return listing
}

// extractAddress locates the "City, ST ZIP" line inside the segment and
// joins the immediately preceding street line to it.
func extractAddress(segment string, allLines []string) string {
	segmentLines := strings.Split(segment, "\n")

	for i, line := range segmentLines {
		line = strings.TrimSpace(line)
		if !cityStateZipExpr.MatchString(line) {
			continue
		}

		street := ""
		if i > 0 {
			prev := strings.TrimSpace(segmentLines[i-1])
			if streetExpr.MatchString(prev) && !strings.Contains(prev, "$") {
				street = prev
			}
		}
		if street == "" {
			// The segment may start mid-line; fall back to the full text.
			street = precedingStreetLine(allLines, line)
		}

		if street != "" {
			return street + ", " + line
		}
		return line
	}
	return ""
}

func precedingStreetLine(lines []string, cityLine string) string {
	for i, line := range lines {
		if strings.TrimSpace(line) != cityLine || i == 0 {
			continue
		}
		prev := strings.TrimSpace(lines[i-1])
		if streetExpr.MatchString(prev) && !strings.Contains(prev, "$") {
			return prev
		}
	}
	return ""
}

func matchGroup(expr *regexp.Regexp, text string) string {
	if m := expr.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
