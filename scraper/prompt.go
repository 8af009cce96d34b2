package scraper

import (
	"fmt"
	"strings"

	"property-agent/models"
)

const anyValue = "Any"

func orAny(s string) string {
	if strings.TrimSpace(s) == "" {
		return anyValue
	}
	return s
}

// BuildExtractionPrompt embeds the search criteria in the instructions sent
// to the extraction service alongside the schema.
func BuildExtractionPrompt(c models.SearchCriteria) string {
	minArea := anyValue
	if c.MinArea > 0 {
		minArea = fmt.Sprintf("%d sft", c.MinArea)
	}

	var b strings.Builder
	b.WriteString("You are extracting property listings from Bangladeshi real-estate websites.\n\n")
	b.WriteString("User search criteria:\n")
	fmt.Fprintf(&b, "- Budget: %s\n", orAny(c.BudgetRange))
	fmt.Fprintf(&b, "- Property type: %s\n", orAny(c.PropertyType))
	fmt.Fprintf(&b, "- Bedrooms: %s\n", orAny(c.Bedrooms))
	fmt.Fprintf(&b, "- Bathrooms: %s\n", orAny(c.Bathrooms))
	fmt.Fprintf(&b, "- Minimum area: %s\n", minArea)
	fmt.Fprintf(&b, "- Special features: %s\n\n", orAny(c.Features))

	b.WriteString(`Extraction instructions:
1. Find every property listing on the page (property cards, listing rows, search results).
2. For each property extract:
   - address: full address (always required)
   - price: price with currency, e.g. '50 lakh BDT'
   - bedrooms: number of bedrooms, e.g. '3 beds'
   - bathrooms: number of bathrooms, e.g. '2 baths'
   - area: size if given, e.g. '1200 sft' or '5 katha'
   - property_type: flat/house/land/office/shop
   - location_type: city corporation/upazila/thana
   - description: listing description if shown
   - listing_url: link to the listing detail page if visible
   - contact_info: seller or agent contact details

3. Important:
   - Extract every listing on the page (at least 3-5 when available)
   - Do not skip a property because a field is missing
   - Use "Not specified" for missing fields
   - Address and price must always be filled in

4. Return format:
   - Return JSON with a "properties" array
   - Each property is a complete object
   - Set "total_count" to the number of properties extracted
   - Set "source_website" to the site name (Bikroy/Bproperty/AmarBari/Bdproperty)

Extract every visible listing, not only a few.`)
	return b.String()
}

// ListingSchema is the JSON schema of the structure the extraction service
// must return.
func ListingSchema() map[string]any {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	strList := func(desc string) map[string]any {
		return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
	}

	property := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"address":       str("Full property address in Bangladesh"),
			"price":         str("Property price in BDT"),
			"bedrooms":      str("Number of bedrooms"),
			"bathrooms":     str("Number of bathrooms"),
			"area":          str("Property area in katha or sft"),
			"property_type": str("Type of property (flat, house, land, office, shop)"),
			"location_type": str("Location type (city corporation, upazila, thana)"),
			"description":   str("Property description in Bengali or English"),
			"features":      strList("Property features"),
			"images":        strList("Property image URLs"),
			"contact_info":  str("Seller or agent contact information with phone number"),
			"listing_url":   str("Original listing URL"),
			"negotiable":    map[string]any{"type": "boolean", "description": "Whether the price is negotiable"},
			"amenities":     strList("Property amenities"),
		},
		"required": []string{"address"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"properties": map[string]any{
				"type":        "array",
				"items":       property,
				"description": "List of properties found in Bangladesh",
			},
			"total_count":    map[string]any{"type": "integer", "description": "Total number of properties found"},
			"source_website": str("Bangladeshi property website where the properties were found"),
		},
		"required": []string{"properties", "total_count", "source_website"},
	}
}
