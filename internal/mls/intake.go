package mls

import (
	"regexp"

	"draftbot/internal/domain"
)

// Intake classification decides which extractor runs on a payload; the two
// extractors are never both applied. Rules are ordered: the resale phrasing
// some vendors use for their combined activity digests always means
// listings, then market keywords outrank listings keywords.
var (
	resaleComboExpr = regexp.MustCompile(`(?i)resale.*(?:active|pending|sold)|(?:active|pending|sold).*resale|\bresale\b`)
	marketExpr      = regexp.MustCompile(`(?i)market\s*(?:snapshot|stats|statistics|report|update)|housing\s*market`)
	listingsExpr    = regexp.MustCompile(`(?i)new\s*listings?|hot\s*sheet|just\s*listed`)
)

// ClassifyIntake maps an e-mail subject to a payload kind. The second return
// is false when the subject matches neither vocabulary.
func ClassifyIntake(subject string) (domain.MLSKind, bool) {
	if resaleComboExpr.MatchString(subject) {
		return domain.MLSListings, true
	}
	if marketExpr.MatchString(subject) {
		return domain.MLSMarket, true
	}
	if listingsExpr.MatchString(subject) {
		return domain.MLSListings, true
	}
	return "", false
}
