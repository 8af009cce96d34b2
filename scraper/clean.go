package scraper

import (
	"strings"
	"unicode"

	"property-agent/models"
	"property-agent/utils"
)

// CleanListings collapses whitespace in every text field and drops records
// without an address. Order is preserved.
func CleanListings(in []models.Listing, logger *utils.Logger) []models.Listing {
	out := make([]models.Listing, 0, len(in))
	for i, l := range in {
		l.Address = normaliseText(l.Address)
		if l.Address == "" {
			logger.Warn("[extract] Dropping listing #%d with empty address", i+1)
			continue
		}
		l.Price = normaliseText(l.Price)
		l.Bedrooms = normaliseText(l.Bedrooms)
		l.Bathrooms = normaliseText(l.Bathrooms)
		l.Area = normaliseText(l.Area)
		l.PropertyType = normaliseText(l.PropertyType)
		l.LocationType = normaliseText(l.LocationType)
		l.Description = normaliseText(l.Description)
		l.ContactInfo = normaliseText(l.ContactInfo)
		l.ListingURL = strings.TrimSpace(l.ListingURL)
		out = append(out, l)
	}

	if dropped := len(in) - len(out); dropped > 0 {
		logger.Info("[extract] Cleaned %d → %d listings (dropped %d)", len(in), len(out), dropped)
	}
	return out
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
