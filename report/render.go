package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"property-agent/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	metricBox  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
	metricLabel = lipgloss.NewStyle().Faint(true)
	metricValue = lipgloss.NewStyle().Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// Tab titles, in display order.
const (
	TabProperties = "🏠 Properties"
	TabMarket     = "📊 Market Analysis"
	TabValuations = "💰 Valuations"
)

// Options controls terminal rendering.
type Options struct {
	Width int // word-wrap width; zero means 80
}

// Render draws the full terminal report: metrics header, the three tabs as
// consecutive sections, and a footer with warnings and elapsed time.
func Render(res *models.AnalysisResult, ins models.Insights, opts Options) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = 80
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("report: create renderer: %w", err)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Property analysis complete"))
	b.WriteString("\n\n")
	b.WriteString(Metrics(ins))
	b.WriteString("\n")

	for _, tab := range Tabs(res) {
		out, err := renderer.Render(tab.Markdown)
		if err != nil {
			return "", fmt.Errorf("report: render %s: %w", tab.Title, err)
		}
		b.WriteString(out)
	}

	for _, w := range res.Warnings {
		b.WriteString(warnStyle.Render("⚠ " + w))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render(Footer(res)))
	b.WriteString("\n")
	return b.String(), nil
}

// Metrics renders the three headline figures side by side.
func Metrics(ins models.Insights) string {
	box := func(label, value string) string {
		return metricBox.Render(metricLabel.Render(label) + "\n" + metricValue.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box("Total properties", fmt.Sprintf("%d", ins.TotalProperties)),
		box("Average price", AveragePrice(ins)),
		box("Most common type", ins.MostCommonType),
	)
}

// AveragePrice formats the average price, or "N/A" without price data.
func AveragePrice(ins models.Insights) string {
	if ins.PricedListings == 0 {
		return "N/A"
	}
	return "৳" + humanize.Comma(ins.AveragePrice)
}

// Footer is the one-line run summary.
func Footer(res *models.AnalysisResult) string {
	return fmt.Sprintf("Run %s · %d properties · completed in %s",
		shortID(res.RunID), res.TotalProperties, res.Elapsed.Round(100*time.Millisecond))
}

// Tab is one titled markdown section of the report.
type Tab struct {
	Title    string
	Markdown string
}

// Tabs builds the Properties, Market Analysis and Valuations sections.
func Tabs(res *models.AnalysisResult) []Tab {
	return []Tab{
		{Title: TabProperties, Markdown: propertiesTab(res)},
		{Title: TabMarket, Markdown: textTab(TabMarket, res.MarketAnalysis, "No market analysis available.")},
		{Title: TabValuations, Markdown: textTab(TabValuations, res.Valuations, "No property valuations available.")},
	}
}

func propertiesTab(res *models.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", TabProperties)
	if len(res.Properties) == 0 {
		b.WriteString("_No properties found._\n")
		return b.String()
	}

	for i, l := range res.Properties {
		n := i + 1
		fmt.Fprintf(&b, "## %d. %s\n\n", n, l.Address)
		fmt.Fprintf(&b, "- **Price:** %s\n", orNA(l.Price))
		fmt.Fprintf(&b, "- **Type:** %s\n", orNA(l.PropertyType))
		fmt.Fprintf(&b, "- **Bedrooms / Bathrooms:** %s / %s\n", orNA(l.Bedrooms), orNA(l.Bathrooms))
		fmt.Fprintf(&b, "- **Area:** %s\n", orNA(l.Area))
		if l.ContactInfo != "" {
			fmt.Fprintf(&b, "- **Contact:** %s\n", l.ContactInfo)
		}
		if len(l.Features) > 0 {
			fmt.Fprintf(&b, "- **Features:** %s\n", strings.Join(l.Features, ", "))
		}
		if l.Negotiable != nil && *l.Negotiable {
			b.WriteString("- **Negotiable:** yes\n")
		}
		if l.Description != "" {
			fmt.Fprintf(&b, "\n%s\n", l.Description)
		}

		if v := ExtractValuation(res.Valuations, n, l.Address); v != "" {
			b.WriteString("\n**AI valuation**\n\n")
			b.WriteString(quote(v))
			b.WriteString("\n")
		}

		if l.ListingURL != "" {
			fmt.Fprintf(&b, "\n[View listing](%s)\n", l.ListingURL)
		}
		b.WriteString("\n---\n\n")
	}
	return b.String()
}

// textTab splits free text into paragraphs on blank lines.
func textTab(title, text, empty string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		fmt.Fprintf(&b, "_%s_\n", empty)
		return b.String()
	}
	b.WriteString(strings.Join(paragraphs, "\n\n"))
	b.WriteString("\n")
	return b.String()
}

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
