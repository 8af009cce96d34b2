// Package report turns an analysis result into what the user reads: the
// metrics header, the per-listing cards and the analysis tabs.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"property-agent/models"
)

// ExtractValuation picks the valuation block of listing ordinal (1-based)
// out of the aggregate valuation text. It tries, in order:
//
//  1. the block opened by "**Property {ordinal}:"
//  2. a paragraph mentioning "Property {ordinal}" or "#{ordinal}"
//  3. a paragraph containing one of the first three address words longer
//     than two characters, ignoring case
//
// and falls back to a short filler block. Empty text gives "".
func ExtractValuation(text string, ordinal int, address string) string {
	if text == "" {
		return ""
	}

	prefix := fmt.Sprintf("%d:", ordinal)
	for _, section := range strings.Split(text, models.ValuationMarker) {
		if strings.HasPrefix(strings.TrimSpace(section), prefix) {
			block := strings.TrimSpace(models.ValuationMarker + section)
			return strings.ReplaceAll(block, "***", "**")
		}
	}

	paragraphs := strings.Split(text, "\n\n")
	byNumber := fmt.Sprintf("Property %d", ordinal)
	byHash := fmt.Sprintf("#%d", ordinal)
	for _, p := range paragraphs {
		if strings.Contains(p, byNumber) || strings.Contains(p, byHash) {
			return p
		}
	}

	words := addressWords(address)
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		for _, w := range words {
			if strings.Contains(lower, w) {
				return p
			}
		}
	}

	return fmt.Sprintf("**Property %d Analysis**\n"+
		"• Analysis: no specific valuation found\n"+
		"• Recommendation: see the Market Analysis tab for general insights", ordinal)
}

// addressWords returns the significant words among the first three words of
// the address, lower-cased.
func addressWords(address string) []string {
	fields := strings.Fields(strings.ToLower(address))
	if len(fields) > 3 {
		fields = fields[:3]
	}
	words := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 2 {
			words = append(words, f)
		}
	}
	return words
}
