// Package content decides whether a discovered candidate is worth publishing
// and composes the publishable text for every draft type.
package content

import (
	"strings"

	"draftbot/internal/domain"
)

// CategoryRule maps a keyword set to a draft type. Rules are evaluated in
// slice order and the first hit wins, so narrower vocabularies (schools)
// must stay ahead of generic ones (events).
type CategoryRule struct {
	Keywords []string         `yaml:"keywords"`
	Type     domain.DraftType `yaml:"type"`
}

// Rules carries the classifier vocabularies. Loaded once from config and
// treated as immutable afterwards.
type Rules struct {
	CommunityTerms   []string       `yaml:"community_terms"`
	BroaderAreaTerms []string       `yaml:"broader_area_terms"`
	ImpactTerms      []string       `yaml:"impact_terms"`
	Categories       []CategoryRule `yaml:"categories"`
	Denylist         []string       `yaml:"denylist"`
}

// DefaultRules returns the production vocabularies. Config may override any
// of them wholesale.
func DefaultRules() Rules {
	return Rules{
		CommunityTerms:   []string{"two rivers", "2 rivers"},
		BroaderAreaTerms: []string{"wesley chapel", "zephyrhills", "pasco county", "pasco"},
		ImpactTerms: []string{
			"school", "student", "zoning", "rezoning", "road", "traffic",
			"infrastructure", "bridge", "utility", "utilities", "water", "sewer",
			"grand opening", "retail", "tax", "assessment", "millage",
			"hurricane", "storm", "flood",
		},
		Categories: []CategoryRule{
			{Keywords: []string{"school", "student", "district"}, Type: domain.TypeSchool},
			{Keywords: []string{"road", "traffic", "fdot", "infrastructure", "bridge", "sr-56", "i-75"}, Type: domain.TypeInfra},
			{Keywords: []string{"event", "festival", "community", "meeting"}, Type: domain.TypeEvent},
			{Keywords: []string{"housing", "market", "home", "real estate"}, Type: domain.TypeMarket},
			{Keywords: []string{"development", "builder", "construction"}, Type: domain.TypeDev},
		},
		Denylist: []string{
			"shooting", "murder", "arrest", "crash", "fatal", "lawsuit",
			"election", "campaign", "protest",
		},
	}
}

// IsRelevant applies the two-tier inclusion gate, then the denylist veto.
//
// Tier 1: any core-community term in title+match-text passes unconditionally.
// Tier 2: a broader-area term passes only together with an impact-signal
// term, which keeps broad-region noise out of a single-community feed.
// The denylist always wins over inclusion signals.
func (r Rules) IsRelevant(candidate domain.CandidateItem) bool {
	text := strings.ToLower(candidate.Title + " " + candidate.TextForMatch)

	passed := containsAny(text, r.CommunityTerms)
	if !passed && containsAny(text, r.BroaderAreaTerms) {
		passed = containsAny(text, r.ImpactTerms)
	}
	if !passed {
		return false
	}

	return !containsAny(text, r.Denylist)
}

// ClassifyType assigns a content category independent of relevance. The
// first category row with any keyword hit wins; no hit means general news.
func (r Rules) ClassifyType(candidate domain.CandidateItem) domain.DraftType {
	text := strings.ToLower(candidate.Title + " " + candidate.Snippet)

	for _, rule := range r.Categories {
		if containsAny(text, rule.Keywords) {
			return rule.Type
		}
	}
	return domain.TypeNews
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
