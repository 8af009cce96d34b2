package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"property-agent/models"
)

var csvHeader = []string{
	"run_id", "number", "address", "price", "bedrooms", "bathrooms", "area",
	"property_type", "location_type", "contact_info", "listing_url", "negotiable",
	"features", "amenities", "description",
}

// CSVWriter exports listings to a CSV file, one row per listing.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends the listings of one run. Number is the 1-based position of
// the listing in the run.
func (c *CSVWriter) Write(runID string, listings []models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, l := range listings {
		row := []string{
			runID,
			strconv.Itoa(i + 1),
			l.Address,
			l.Price,
			l.Bedrooms,
			l.Bathrooms,
			l.Area,
			l.PropertyType,
			l.LocationType,
			l.ContactInfo,
			l.ListingURL,
			formatBool(l.Negotiable),
			strings.Join(l.Features, "; "),
			strings.Join(l.Amenities, "; "),
			l.Description,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
