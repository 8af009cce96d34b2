package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"property-agent/models"
)

const notSpecified = "Not specified"

// Instruction profiles of the two analysis calls.
const (
	marketAnalystInstruction = `You are a Bangladeshi real-estate market analyst. Give short, relevant market insight.

Requirements:
- Keep the analysis short and clear
- Focus on the main market trends
- Give 2-3 bullet points per section
- Avoid repetition and long explanations

Cover:
1. Market condition: buyer's or seller's market, price trends
2. Main areas: a short overview of the areas the properties are in
3. Investment potential: 2-3 key points

Format: use bullet points and keep each section under 100 words.`

	valuationAnalystInstruction = `You are a property valuation specialist. Give short property valuations.

Requirements:
- Keep each property's valuation to 2-3 sentences
- Focus on price, investment potential and a recommendation
- Avoid long analysis and repetition
- Use bullet points for clarity

For every property give:
1. Price assessment: fair, over or under priced
2. Investment potential: high/medium/low with a short reason
3. Key recommendation: one actionable insight

Format:
- Use bullet points
- Keep every property under 50 words
- Focus on actionable insight`
)

// MarketPrompt builds the market-analysis prompt for a run.
func MarketPrompt(count int, criteria models.SearchCriteria) string {
	location := criteria.City
	if criteria.Area != "" {
		location += ", " + criteria.Area
	}
	return fmt.Sprintf(`Give a short market analysis for these properties:

Properties: %d properties in %s
Budget: %s

Give short insight on:
• Market condition (buyer's or seller's market)
• A short overview of the areas the properties are in
• Investment potential (at most 3 bullet points)

Keep each section under 100 words. Use bullet points.`, count, location, orAny(criteria.BudgetRange))
}

type valuationItem struct {
	Number       int    `json:"number"`
	Address      string `json:"address"`
	Price        string `json:"price"`
	PropertyType string `json:"property_type"`
	Bedrooms     string `json:"bedrooms"`
	Bathrooms    string `json:"bathrooms"`
	Area         string `json:"area"`
}

// ValuationPrompt builds the per-listing valuation prompt. Listings are
// numbered from 1 in result order.
func ValuationPrompt(listings []models.Listing, criteria models.SearchCriteria) (string, error) {
	items := make([]valuationItem, len(listings))
	for i, l := range listings {
		items[i] = valuationItem{
			Number:       i + 1,
			Address:      orNotSpecified(l.Address),
			Price:        orNotSpecified(l.Price),
			PropertyType: orNotSpecified(l.PropertyType),
			Bedrooms:     orNotSpecified(l.Bedrooms),
			Bathrooms:    orNotSpecified(l.Bathrooms),
			Area:         orNotSpecified(l.Area),
		}
	}

	projection, err := marshalIndent(items)
	if err != nil {
		return "", fmt.Errorf("services: encode valuation projection: %w", err)
	}

	return fmt.Sprintf(`Give a short valuation for every property. Follow the exact format below.

User budget: %s

Properties to value:
%s

Value each property in this format:

%s [NUMBER]: [ADDRESS]**
• Price: [fair/overpriced/underpriced] - [short reason]
• Investment potential: [high/medium/low] - [short reason]
• Recommendation: [one actionable insight]

Requirements:
- Start every valuation with %s [NUMBER]:**
- Keep every property under 50 words
- Value all %d properties separately
- Use bullet points as in the format above`,
		orAny(criteria.BudgetRange), projection, models.ValuationMarker, models.ValuationMarker, len(listings)), nil
}

// marshalIndent encodes v as indented JSON without escaping <, > and &, so
// URLs and non-ASCII text stay readable.
func marshalIndent(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
