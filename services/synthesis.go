package services

import (
	"fmt"
	"regexp"
	"strings"

	"property-agent/models"
	"property-agent/utils"
)

// urlPattern is a loose URL matcher run over free text.
var urlPattern = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

// Synthesize assembles the final markdown document of a run: one section per
// listing in result order, the market and valuation texts verbatim, and every
// URL found anywhere in the listing data or the two texts.
func Synthesize(listings []models.Listing, market, valuations string) (string, error) {
	var b strings.Builder

	b.WriteString("# 🏠 Property Listings Found\n\n")
	fmt.Fprintf(&b, "**Total properties:** %d matching your criteria\n\n", len(listings))

	for i, l := range listings {
		writeListing(&b, i+1, l)
	}

	b.WriteString("\n---\n\n# 📊 Market Analysis & Investment Insights\n\n")
	b.WriteString(market)
	b.WriteString("\n\n---\n\n# 💰 Property Valuations & Recommendations\n\n")
	b.WriteString(valuations)
	b.WriteString("\n\n---\n\n# 🔗 All Property Links\n")

	data, err := marshalIndent(listings)
	if err != nil {
		return "", fmt.Errorf("services: encode listings for link scan: %w", err)
	}
	urls := ScanURLs(data + " " + market + " " + valuations)
	if len(urls) > 0 {
		b.WriteString("\n### Available property links:\n")
		for i, u := range urls {
			fmt.Fprintf(&b, "%d. %s\n", i+1, u)
		}
	}

	return b.String(), nil
}

func writeListing(b *strings.Builder, n int, l models.Listing) {
	link := l.ListingURL
	if link == "" {
		link = "#"
	}

	fmt.Fprintf(b, "\n### Property %d: %s\n\n", n, l.Address)
	fmt.Fprintf(b, "**Price:** %s  \n", orDefault(l.Price, "Price not specified"))
	fmt.Fprintf(b, "**Type:** %s  \n", orDefault(l.PropertyType, "Type not specified"))
	fmt.Fprintf(b, "**Bedrooms:** %s | **Bathrooms:** %s  \n", orNotSpecified(l.Bedrooms), orNotSpecified(l.Bathrooms))
	fmt.Fprintf(b, "**Area:** %s  \n", orNotSpecified(l.Area))
	fmt.Fprintf(b, "**Contact:** %s  \n\n", orDefault(l.ContactInfo, "Contact info not specified"))
	fmt.Fprintf(b, "**Description:** %s  \n\n", orDefault(l.Description, "Description not specified"))
	fmt.Fprintf(b, "**Listing URL:** [View property](%s)  \n\n---\n", link)
}

// ScanURLs returns every URL-looking substring of text, deduplicated in
// first-seen order.
func ScanURLs(text string) []string {
	set := utils.NewURLSet()
	for _, u := range urlPattern.FindAllString(text, -1) {
		set.Add(u)
	}
	return set.List()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
