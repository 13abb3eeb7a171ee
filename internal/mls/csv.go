// Package mls recovers structured market and listing records from the
// semi-structured payloads MLS vendors send by e-mail. The vendors promise
// no schema, so every path here is alias- and heuristic-based and degrades
// to zero/nil values instead of failing a whole payload.
package mls

import (
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"

	"draftbot/internal/domain"
)

var (
	marketFieldAliases = map[string][]string{
		"active":  {"activecount", "active homes", "active"},
		"pending": {"pendingcount", "pending homes", "pending"},
		"sold30":  {"soldlast30", "sold last 30", "soldlast30days"},
		"median":  {"mediansoldprice", "median sold price", "median sold"},
		"dom":     {"avgdom", "avg days on market", "days on market"},
		"reduced": {"pricereductions", "price reductions"},
	}

	listingFieldAliases = map[string][]string{
		"address": {"address", "property address"},
		"price":   {"price", "list price"},
		"beds":    {"beds", "bedrooms"},
		"baths":   {"baths", "bathrooms"},
		"sqft":    {"sqft", "square feet", "living area"},
		"status":  {"status"},
		"mls":     {"mls", "mls #", "mls number"},
	}

	nonNumericExpr = regexp.MustCompile(`[^0-9-]`)
)

// ParseMarketSnapshotCSV extracts the weekly market figures from the first
// data row. Missing or unparseable required fields become zero; the optional
// sold-last-30 figure becomes nil so downstream can flag it for review.
func ParseMarketSnapshotCSV(raw string) domain.MarketStats {
	rows := parseRows(raw)
	var row map[string]string
	if len(rows) > 0 {
		row = rows[0]
	}

	return domain.MarketStats{
		ActiveCount:     parseFigure(findValue(row, marketFieldAliases["active"])),
		PendingCount:    parseFigure(findValue(row, marketFieldAliases["pending"])),
		SoldLast30:      parseOptionalFigure(findValue(row, marketFieldAliases["sold30"])),
		MedianSoldPrice: parseFigure(findValue(row, marketFieldAliases["median"])),
		AvgDaysOnMarket: parseFigure(findValue(row, marketFieldAliases["dom"])),
		PriceReductions: parseFigure(findValue(row, marketFieldAliases["reduced"])),
	}
}

// ParseListingsCSV extracts one listing per data row, dropping rows without
// an address. Status defaults to Active when the column is absent or blank.
func ParseListingsCSV(raw string) []domain.Listing {
	rows := parseRows(raw)

	listings := make([]domain.Listing, 0, len(rows))
	for _, row := range rows {
		listing := domain.Listing{
			Address:   findValue(row, listingFieldAliases["address"]),
			Price:     parseFigure(findValue(row, listingFieldAliases["price"])),
			Beds:      parseOptionalFigure(findValue(row, listingFieldAliases["beds"])),
			Baths:     parseOptionalFigure(findValue(row, listingFieldAliases["baths"])),
			Sqft:      parseOptionalFigure(findValue(row, listingFieldAliases["sqft"])),
			MLSNumber: findValue(row, listingFieldAliases["mls"]),
			Status:    findValue(row, listingFieldAliases["status"]),
		}
		if listing.Status == "" {
			listing.Status = "Active"
		}
		if listing.Address == "" {
			continue
		}
		listings = append(listings, listing)
	}
	return listings
}

// parseRows reads the CSV text into header-keyed rows. The first non-blank
// line is the header; a malformed payload yields no rows, never an error.
func parseRows(raw string) []map[string]string {
	text := strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF")
	if text == "" {
		return nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	headers := make([]string, len(records[0]))
	for i, header := range records[0] {
		headers[i] = strings.TrimSpace(header)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = strings.TrimSpace(record[i])
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// findValue returns the column whose header equals the earliest matching
// alias, case-insensitively. Alias order is the match priority.
func findValue(row map[string]string, aliases []string) string {
	for _, alias := range aliases {
		for header, value := range row {
			if strings.EqualFold(header, alias) {
				return value
			}
		}
	}
	return ""
}

// parseFigure strips everything but digits and minus signs before the
// integer conversion, so "$450,000" and "450000" parse alike. Unparseable
// values become zero rather than errors.
func parseFigure(value string) int {
	n, err := strconv.Atoi(nonNumericExpr.ReplaceAllString(value, ""))
	if err != nil {
		return 0
	}
	return n
}

func parseOptionalFigure(value string) *int {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(nonNumericExpr.ReplaceAllString(value, ""))
	if err != nil {
		return nil
	}
	return &n
}
