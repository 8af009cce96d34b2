package scraper

import (
	"context"
	"errors"
	"fmt"

	"property-agent/config"
	"property-agent/models"
	"property-agent/utils"
)

// ErrNoSourceSelected is returned when none of the configured sites was
// selected. No network call is made in that case.
var ErrNoSourceSelected = errors.New("no source website selected")

// Request is one call to an extraction service.
type Request struct {
	URLs   []string
	Prompt string
	Schema map[string]any
}

// Service is an external page-extraction backend. It returns the raw JSON
// document produced by the service; shape handling happens in this package.
type Service interface {
	Name() string
	Extract(ctx context.Context, req Request) ([]byte, error)
}

// ExtractionError is the single failure shape of the extraction client.
// Message is meant for the user.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string { return e.Message }

func (e *ExtractionError) Unwrap() error { return e.Cause }

// Extraction is the normalized result of a successful extraction call.
type Extraction struct {
	Listings      []models.Listing
	ReportedCount int // total_count as reported by the service
	URLs          []string
	Sources       []string
}

// Client wraps a single extraction call: URL construction, prompt and
// schema, and normalization of whatever the service sends back.
type Client struct {
	service Service
	sites   []config.Site
	logger  *utils.Logger
}

// NewClient creates an extraction Client over the given service and site list.
func NewClient(service Service, sites []config.Site, logger *utils.Logger) *Client {
	return &Client{service: service, sites: sites, logger: logger}
}

// BuildURLs renders the URL of every selected site, in configured site order.
// Unselected and unknown names are skipped.
func BuildURLs(location string, sites []config.Site, selected []string) []string {
	want := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		want[s] = struct{}{}
	}

	var urls []string
	for _, site := range sites {
		if _, ok := want[site.Name]; ok {
			urls = append(urls, site.URL(location))
		}
	}
	return urls
}

// Extract runs one extraction for the criteria against the selected sites.
// Every failure, including a panic inside the service, comes back as an
// *ExtractionError.
func (c *Client) Extract(ctx context.Context, criteria models.SearchCriteria, selected []string) (*Extraction, error) {
	location := NormalizeLocation(criteria.City, criteria.Area)
	urls := BuildURLs(location, c.sites, selected)

	c.logger.Info("[extract] Selected websites: %v", selected)
	c.logger.Debug("[extract] URLs to search: %v", urls)

	if len(urls) == 0 {
		return nil, &ExtractionError{
			Message: "No website selected. Select at least one Bangladeshi property website (Bikroy, Bproperty, AmarBari, Bdproperty).",
			Cause:   ErrNoSourceSelected,
		}
	}

	req := Request{
		URLs:   urls,
		Prompt: BuildExtractionPrompt(criteria),
		Schema: ListingSchema(),
	}

	c.logger.Info("[extract] Calling %s with %d URL(s)", c.service.Name(), len(urls))
	raw, err := c.call(ctx, req)
	if err != nil {
		return nil, &ExtractionError{
			Message: fmt.Sprintf("%s extraction failed: %v", c.service.Name(), err),
			Cause:   err,
		}
	}

	listings, reported, err := NormalizeResponse(raw)
	if err != nil {
		return nil, &ExtractionError{
			Message: fmt.Sprintf("%s extraction failed: %v", c.service.Name(), err),
			Cause:   err,
		}
	}

	listings = CleanListings(listings, c.logger)
	c.logger.Info("[extract] Extracted %d of %d reported properties", len(listings), reported)

	if len(listings) == 0 {
		return nil, &ExtractionError{Message: noListingsMessage(reported)}
	}

	c.logger.Debug("[extract] First property sample: %+v", listings[0])
	return &Extraction{
		Listings:      listings,
		ReportedCount: reported,
		URLs:          urls,
		Sources:       selected,
	}, nil
}

func (c *Client) call(ctx context.Context, req Request) (raw []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction service panicked: %v", r)
		}
	}()
	return c.service.Extract(ctx, req)
}

func noListingsMessage(reported int) string {
	return fmt.Sprintf(`No properties found: the extraction produced no usable listings, although the source reported %d.

Possible causes:
1. The website layout changed and the extraction schema no longer matches it
2. The website blocks automated access or needs interaction (captcha, login, cookie banner)
3. No listings match the given criteria
4. The extraction prompt needs tuning for this website

Suggestions:
- Try other websites (Bikroy, Bproperty, AmarBari, Bdproperty)
- Broaden the criteria (any bedrooms, any type, a wider budget)
- Check whether the website needs user interaction before showing listings`, reported)
}
