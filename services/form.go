package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"property-agent/config"
	"property-agent/models"
	"property-agent/scraper"
)

// Choices offered by the search form.
var (
	Cities        = []string{"Dhaka", "Chattogram", "Khulna", "Rajshahi", "Sylhet", "Barishal", "Rangpur", "Mymensingh"}
	PropertyTypes = []string{"Any", "Flat", "House", "Land", "Office", "Shop"}
	BedroomOpts   = []string{"Any", "1", "2", "3", "4", "5+"}
	BathroomOpts  = []string{"Any", "1", "1.5", "2", "2.5", "3", "3.5", "4+"}
)

// Form defaults.
const (
	DefaultMinPrice = 5_000_000
	DefaultMaxPrice = 20_000_000
	DefaultMinArea  = 800
	DefaultFeatures = "No special features mentioned"
)

// SearchForm is the raw user input for one search.
type SearchForm struct {
	City         string
	Area         string
	MinPrice     int64
	MaxPrice     int64
	PropertyType string
	Bedrooms     string
	Bathrooms    string
	MinArea      int
	Features     string
	Sites        []string
}

// NewSearchForm returns a form holding the default values.
func NewSearchForm(sites []config.Site) SearchForm {
	return SearchForm{
		MinPrice:     DefaultMinPrice,
		MaxPrice:     DefaultMaxPrice,
		PropertyType: "Any",
		Bedrooms:     "Any",
		Bathrooms:    "Any",
		MinArea:      DefaultMinArea,
		Sites:        config.DefaultSelection(sites),
	}
}

// Validate checks the credentials in cfg and the form fields. Missing items
// are reported together as a *MissingFieldsError; other problems are
// reported one at a time.
func (f SearchForm) Validate(cfg *config.Config) error {
	var missing []string
	if cfg.GoogleAPIKey == "" {
		missing = append(missing, "Google AI API key")
	}
	if cfg.NeedsFirecrawlKey() && cfg.FirecrawlAPIKey == "" {
		missing = append(missing, "Firecrawl API key")
	}
	if strings.TrimSpace(f.City) == "" {
		missing = append(missing, "City")
	}
	if len(f.Sites) == 0 {
		missing = append(missing, "At least one website selection")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Items: missing}
	}

	if !scraper.IsKnownCity(f.City) {
		return fmt.Errorf("city %q is not supported; choose one of %s", f.City, strings.Join(Cities, ", "))
	}
	if err := checkChoice("property type", f.PropertyType, PropertyTypes); err != nil {
		return err
	}
	if err := checkChoice("bedrooms", f.Bedrooms, BedroomOpts); err != nil {
		return err
	}
	if err := checkChoice("bathrooms", f.Bathrooms, BathroomOpts); err != nil {
		return err
	}
	if f.MinPrice < 0 || f.MaxPrice < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if f.MaxPrice < f.MinPrice {
		return fmt.Errorf("maximum price %s is below minimum price %s", humanize.Comma(f.MaxPrice), humanize.Comma(f.MinPrice))
	}
	if f.MinArea < 0 {
		return fmt.Errorf("minimum area must not be negative")
	}
	return nil
}

func checkChoice(field, value string, options []string) error {
	if value == "" || slices.Contains(options, value) {
		return nil
	}
	return fmt.Errorf("%s %q is not one of %s", field, value, strings.Join(options, ", "))
}

// BudgetRange formats the price range, e.g. "5,000,000 - 20,000,000 BDT".
func (f SearchForm) BudgetRange() string {
	return fmt.Sprintf("%s - %s BDT", humanize.Comma(f.MinPrice), humanize.Comma(f.MaxPrice))
}

// Criteria converts the form into the immutable search criteria of a run.
func (f SearchForm) Criteria() models.SearchCriteria {
	features := strings.TrimSpace(f.Features)
	if features == "" {
		features = DefaultFeatures
	}
	return models.SearchCriteria{
		City:         strings.TrimSpace(f.City),
		Area:         strings.TrimSpace(f.Area),
		BudgetRange:  f.BudgetRange(),
		PropertyType: orAny(f.PropertyType),
		Bedrooms:     orAny(f.Bedrooms),
		Bathrooms:    orAny(f.Bathrooms),
		MinArea:      f.MinArea,
		Features:     features,
	}
}

func orAny(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Any"
	}
	return s
}
