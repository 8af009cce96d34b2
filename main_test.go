package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-agent/models"
	"property-agent/services"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"GOOGLE_API_KEY", "FIRECRAWL_API_KEY", "SITES_FILE", "EXTRACTION_BACKEND", "LOG_FILE"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	out, err := execute(t, "normalize", "ঢাকা", "Gulshan")
	require.NoError(t, err)
	assert.Equal(t, "dhaka/gulshan\n", out)

	out, err = execute(t, "normalize", "Chattogram")
	require.NoError(t, err)
	assert.Equal(t, "chittagong\n", out)
}

func TestSitesCommand(t *testing.T) {
	out, err := execute(t, "sites", "--city", "Dhaka")
	require.NoError(t, err)
	assert.Contains(t, out, "https://www.bikroy.com/bn/ads/dhaka/properties")
	assert.Contains(t, out, "ShareBazar")
	assert.Equal(t, 7, strings.Count(out, "\n"))
}

func TestSearchRejectsMissingFields(t *testing.T) {
	_, err := execute(t, "search", "--format", "markdown")

	var missing *services.MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"Google AI API key", "Firecrawl API key", "City"}, missing.Items)
}

func TestSearchRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "search", "--city", "Dhaka", "--format", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestWriteResultFormats(t *testing.T) {
	res := &models.AnalysisResult{
		RunID:           "abcdef12-3456",
		Properties:      []models.Listing{{Address: "Banani", ListingURL: "https://x.example/a?b=1&c=2"}},
		Synthesis:       "# 🏠 Property Listings Found",
		TotalProperties: 1,
		Elapsed:         2 * time.Second,
	}
	ins := models.Insights{TotalProperties: 1, MostCommonType: "Unknown"}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatJSON, 80, res, ins))
	assert.Contains(t, buf.String(), `"total_properties": 1`)
	assert.Contains(t, buf.String(), `"most_common_type": "Unknown"`)
	assert.Contains(t, buf.String(), "https://x.example/a?b=1&c=2")

	buf.Reset()
	require.NoError(t, writeResult(&buf, formatMarkdown, 80, res, ins))
	assert.True(t, strings.HasPrefix(buf.String(), "# 🏠 Property Listings Found\n"))
	assert.Contains(t, buf.String(), "Run abcdef12 · 1 properties · completed in 2s")
}

type fakeExporter struct {
	writeErr error
	runID    string
	written  int
	closed   bool
}

func (f *fakeExporter) Write(runID string, listings []models.Listing) error {
	f.runID = runID
	f.written = len(listings)
	return f.writeErr
}

func (f *fakeExporter) Close() error {
	f.closed = true
	return nil
}

type fakeArchiver struct {
	archived *models.AnalysisResult
	closed   bool
}

func (f *fakeArchiver) Archive(_ context.Context, res *models.AnalysisResult) error {
	f.archived = res
	return nil
}

func (f *fakeArchiver) Close() error {
	f.closed = true
	return nil
}

func TestExportListingsClosesExporter(t *testing.T) {
	res := &models.AnalysisResult{RunID: "run-1", Properties: []models.Listing{{Address: "A"}, {Address: "B"}}}

	w := &fakeExporter{}
	require.NoError(t, exportListings(w, res))
	assert.Equal(t, "run-1", w.runID)
	assert.Equal(t, 2, w.written)
	assert.True(t, w.closed)

	failing := &fakeExporter{writeErr: errors.New("disk full")}
	assert.EqualError(t, exportListings(failing, res), "disk full")
	assert.True(t, failing.closed)
}

func TestArchiveRunClosesArchiver(t *testing.T) {
	res := &models.AnalysisResult{RunID: "run-2"}
	ar := &fakeArchiver{}
	require.NoError(t, archiveRun(context.Background(), ar, res))
	assert.Same(t, res, ar.archived)
	assert.True(t, ar.closed)
}

func TestHistoryNeedsDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := execute(t, "history", "--run", "abc")
	assert.EqualError(t, err, "history needs DATABASE_URL")
}

func TestWriteListings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeListings(&buf, "run-3", nil))
	assert.Equal(t, "No listings archived for run run-3.\n", buf.String())

	buf.Reset()
	require.NoError(t, writeListings(&buf, "run-3", []models.Listing{
		{Address: "Road 11, Banani", Price: "1.5 crore", ListingURL: "https://x.example/1"},
		{Address: "Uttara"},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "https://x.example/1")
	assert.Contains(t, lines[2], "N/A")
}

func TestSearchFlagDefaultsComeFromForm(t *testing.T) {
	cmd := newSearchCmd(&app{})
	defaults := services.NewSearchForm(nil)

	assert.Equal(t, "5000000", cmd.Flags().Lookup("min-price").DefValue)
	assert.Equal(t, "20000000", cmd.Flags().Lookup("max-price").DefValue)
	assert.Equal(t, defaults.PropertyType, cmd.Flags().Lookup("type").DefValue)
	assert.Equal(t, "800", cmd.Flags().Lookup("min-area").DefValue)
}
