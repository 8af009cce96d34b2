package models

import "time"

// ValuationMarker opens every per-listing block of the valuation text. The
// valuation prompt asks for it and the report looks for it.
const ValuationMarker = "**Property"

// SearchCriteria is what the user asked for. It is built once from the
// search form and read by every stage of a run.
type SearchCriteria struct {
	City         string `json:"city"`
	Area         string `json:"area,omitempty"`
	BudgetRange  string `json:"budget_range"`
	PropertyType string `json:"property_type"`
	Bedrooms     string `json:"bedrooms"`
	Bathrooms    string `json:"bathrooms"`
	MinArea      int    `json:"min_area"`
	Features     string `json:"special_features"`
}

// Listing is one property record produced by the extraction stage.
// Only Address is required; listings have no stable ID and are identified
// by their position in the result sequence.
type Listing struct {
	Address      string   `json:"address"`
	Price        string   `json:"price,omitempty"`
	Bedrooms     string   `json:"bedrooms,omitempty"`
	Bathrooms    string   `json:"bathrooms,omitempty"`
	Area         string   `json:"area,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	LocationType string   `json:"location_type,omitempty"`
	Description  string   `json:"description,omitempty"`
	Features     []string `json:"features,omitempty"`
	Images       []string `json:"images,omitempty"`
	ContactInfo  string   `json:"contact_info,omitempty"`
	ListingURL   string   `json:"listing_url,omitempty"`
	Negotiable   *bool    `json:"negotiable,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}

// AnalysisResult is the structured output of one orchestration run.
type AnalysisResult struct {
	RunID           string         `json:"run_id"`
	Criteria        SearchCriteria `json:"criteria"`
	Sources         []string       `json:"sources"`
	Properties      []Listing      `json:"properties"`
	MarketAnalysis  string         `json:"market_analysis"`
	Valuations      string         `json:"property_valuations"`
	Synthesis       string         `json:"markdown_synthesis"`
	TotalProperties int            `json:"total_properties"`
	Warnings        []string       `json:"warnings,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	Elapsed         time.Duration  `json:"elapsed_ns"`
}

// Insights holds the headline metrics shown above the result tabs.
type Insights struct {
	TotalProperties int            `json:"total_properties"`
	AveragePrice    int64          `json:"average_price"` // 0 when no listing carried a usable price
	PricedListings  int            `json:"priced_listings"`
	MostCommonType  string         `json:"most_common_type"`
	TypeCounts      map[string]int `json:"type_counts"`
}

// ProgressFunc receives advisory progress updates. fraction is in (0, 1].
type ProgressFunc func(fraction float64, status string)
