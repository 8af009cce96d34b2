package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-agent/models"
)

func sampleResult() *models.AnalysisResult {
	yes := true
	return &models.AnalysisResult{
		RunID: "3f2a9c1e-0000-4000-8000-000000000000",
		Properties: []models.Listing{
			{Address: "House 5, Dhanmondi", Price: "1.5 crore BDT", PropertyType: "Flat", ListingURL: "https://www.bikroy.com/bn/ad/1", Negotiable: &yes},
			{Address: "Sector 7, Uttara", Features: []string{"lift", "parking"}},
		},
		MarketAnalysis:  "• Seller's market\n\n• Prices rising in Uttara",
		Valuations:      twoBlocks,
		TotalProperties: 2,
		Warnings:        []string{"market analysis failed: quota exceeded"},
		Elapsed:         12340 * time.Millisecond,
	}
}

func TestTabsOrderAndContent(t *testing.T) {
	tabs := Tabs(sampleResult())
	require.Len(t, tabs, 3)
	assert.Equal(t, []string{TabProperties, TabMarket, TabValuations}, []string{tabs[0].Title, tabs[1].Title, tabs[2].Title})

	props := tabs[0].Markdown
	assert.Contains(t, props, "## 1. House 5, Dhanmondi")
	assert.Contains(t, props, "## 2. Sector 7, Uttara")
	assert.Contains(t, props, "> **Property 2: Sector 7, Uttara**")
	assert.Contains(t, props, "[View listing](https://www.bikroy.com/bn/ad/1)")
	assert.Contains(t, props, "- **Negotiable:** yes")
	assert.Contains(t, props, "- **Features:** lift, parking")
	assert.Contains(t, props, "- **Area:** N/A")
	assert.Less(t, strings.Index(props, "Dhanmondi"), strings.Index(props, "Uttara"))

	assert.Contains(t, tabs[1].Markdown, "• Seller's market\n\n• Prices rising in Uttara")
}

func TestTextTabEmpty(t *testing.T) {
	res := sampleResult()
	res.MarketAnalysis = "  \n\n  "
	res.Valuations = ""

	tabs := Tabs(res)
	assert.Contains(t, tabs[1].Markdown, "_No market analysis available._")
	assert.Contains(t, tabs[2].Markdown, "_No property valuations available._")
	assert.NotContains(t, tabs[0].Markdown, "AI valuation")
}

func TestAveragePriceAndFooter(t *testing.T) {
	assert.Equal(t, "N/A", AveragePrice(models.Insights{}))
	assert.Equal(t, "৳12,500,000", AveragePrice(models.Insights{AveragePrice: 12500000, PricedListings: 2}))

	assert.Equal(t, "Run 3f2a9c1e · 2 properties · completed in 12.3s", Footer(sampleResult()))
}

func TestRender(t *testing.T) {
	out, err := Render(sampleResult(), models.Insights{TotalProperties: 2, MostCommonType: "Flat"}, Options{Width: 100})
	require.NoError(t, err)
	assert.Contains(t, out, "Total properties")
	assert.Contains(t, out, "Most common type")
	assert.Contains(t, out, "Dhanmondi")
	assert.Contains(t, out, "quota exceeded")
	assert.Contains(t, out, "completed in 12.3s")
}
