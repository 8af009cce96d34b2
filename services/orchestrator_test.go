package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-agent/config"
	"property-agent/models"
	"property-agent/scraper"
	"property-agent/utils"
)

type stubService struct {
	calls int
	urls  []string
	body  string
	err   error
}

func (s *stubService) Name() string { return "Stub" }

func (s *stubService) Extract(_ context.Context, req scraper.Request) ([]byte, error) {
	s.calls++
	s.urls = req.URLs
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

type call struct {
	instruction string
	prompt      string
}

type fakeAnalyst struct {
	calls   []call
	answers map[string]string // keyed by instruction
	errs    map[string]error
	panics  map[string]bool
	onCall  func()
}

func (f *fakeAnalyst) Complete(_ context.Context, instruction, prompt string) (string, error) {
	f.calls = append(f.calls, call{instruction, prompt})
	if f.onCall != nil {
		f.onCall()
	}
	if f.panics[instruction] {
		panic("model client crashed")
	}
	if err := f.errs[instruction]; err != nil {
		return "", err
	}
	return f.answers[instruction], nil
}

const threeListings = `{"success": true, "data": {"properties": [
	{"address": "Road 11, Banani", "price": "1.5 crore BDT", "listing_url": "https://www.bproperty.com/en/property/details-1.html"},
	{"address": "Sector 7, Uttara", "price": "90 lakh BDT"},
	{"address": "Mirpur DOHS", "price": "75 lakh BDT"}
], "total_count": 3, "source_website": "Bproperty"}}`

type progressCall struct {
	fraction float64
	status   string
}

func newTestOrchestrator(svc scraper.Service, analyst Analyst) *Orchestrator {
	logger := utils.NewNopLogger()
	client := scraper.NewClient(svc, config.DefaultSites(), logger)
	return NewOrchestrator(client, analyst, logger)
}

func defaultAnalyst() *fakeAnalyst {
	return &fakeAnalyst{answers: map[string]string{
		marketAnalystInstruction:    "• Seller's market in Dhaka",
		valuationAnalystInstruction: "**Property 1: Road 11, Banani**\n• Price: fair\n\n**Property 2: Sector 7, Uttara**\n• Price: high\n\n**Property 3: Mirpur DOHS**\n• Price: low",
	}}
}

func TestRunEndToEnd(t *testing.T) {
	svc := &stubService{body: threeListings}
	analyst := defaultAnalyst()
	var progress []progressCall

	criteria := models.SearchCriteria{City: "Dhaka", BudgetRange: "5,000,000 - 20,000,000 BDT"}
	res, err := newTestOrchestrator(svc, analyst).Run(context.Background(), criteria,
		[]string{"Bikroy.com", "Bproperty.com"},
		func(f float64, s string) { progress = append(progress, progressCall{f, s}) })
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 3, res.TotalProperties)
	assert.Len(t, res.Properties, 3)
	assert.Equal(t, 2, len(svc.urls))
	assert.Equal(t, 1, svc.calls)

	doc := res.Synthesis
	assert.Equal(t, 3, strings.Count(doc, "\n### Property "))
	i1 := strings.Index(doc, "### Property 1: Road 11, Banani")
	i2 := strings.Index(doc, "### Property 2: Sector 7, Uttara")
	i3 := strings.Index(doc, "### Property 3: Mirpur DOHS")
	assert.True(t, i1 >= 0 && i1 < i2 && i2 < i3, "sections out of order: %d %d %d", i1, i2, i3)
	assert.Contains(t, doc, "https://www.bproperty.com/en/property/details-1.html")

	assert.Equal(t, "• Seller's market in Dhaka", res.MarketAnalysis)
	assert.True(t, strings.HasPrefix(res.Valuations, "**Property 1: Road 11, Banani**"))
	assert.Empty(t, res.Warnings)
	assert.NotEmpty(t, res.RunID)
	assert.Greater(t, int64(res.Elapsed), int64(0))

	require.Len(t, progress, 5)
	assert.Equal(t, 0.2, progress[0].fraction)
	assert.Equal(t, 1.0, progress[4].fraction)
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i].fraction, progress[i-1].fraction)
	}

	require.Len(t, analyst.calls, 2)
	assert.Equal(t, marketAnalystInstruction, analyst.calls[0].instruction)
	assert.Contains(t, analyst.calls[0].prompt, "3 properties in Dhaka")
	assert.Equal(t, valuationAnalystInstruction, analyst.calls[1].instruction)
	assert.Contains(t, analyst.calls[1].prompt, `"address": "Mirpur DOHS"`)
}

func TestRunStopsAfterEmptyExtraction(t *testing.T) {
	svc := &stubService{body: `{"properties": [], "total_count": 0}`}
	analyst := defaultAnalyst()
	var progress []float64

	res, err := newTestOrchestrator(svc, analyst).Run(context.Background(),
		models.SearchCriteria{City: "Dhaka"}, []string{"Bikroy.com"},
		func(f float64, _ string) { progress = append(progress, f) })

	assert.Nil(t, res)
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "no properties found")

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StageExtraction, runErr.Stage)
	assert.Empty(t, analyst.calls)
	assert.Equal(t, []float64{0.2}, progress)
}

func TestRunNoSourceSelected(t *testing.T) {
	svc := &stubService{body: threeListings}
	res, err := newTestOrchestrator(svc, defaultAnalyst()).Run(context.Background(),
		models.SearchCriteria{City: "Dhaka"}, nil, nil)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, scraper.ErrNoSourceSelected)
	assert.Zero(t, svc.calls)
}

func TestRunExtractionTransportError(t *testing.T) {
	svc := &stubService{err: errors.New("connection reset by peer")}
	_, err := newTestOrchestrator(svc, defaultAnalyst()).Run(context.Background(),
		models.SearchCriteria{City: "Dhaka"}, []string{"Bikroy.com"}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Property search failed: Stub extraction failed: connection reset by peer")
}

func TestRunMarketFailureDegrades(t *testing.T) {
	analyst := defaultAnalyst()
	analyst.errs = map[string]error{marketAnalystInstruction: errors.New("quota exceeded")}

	res, err := newTestOrchestrator(&stubService{body: threeListings}, analyst).Run(context.Background(),
		models.SearchCriteria{City: "Dhaka"}, []string{"Bikroy.com"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Market analysis unavailable: quota exceeded", res.MarketAnalysis)
	assert.Equal(t, []string{"market analysis failed: quota exceeded"}, res.Warnings)
	assert.Contains(t, res.Synthesis, "Market analysis unavailable: quota exceeded")
	assert.Len(t, analyst.calls, 2)
}

func TestRunValuationPanicDegrades(t *testing.T) {
	analyst := defaultAnalyst()
	analyst.panics = map[string]bool{valuationAnalystInstruction: true}

	res, err := newTestOrchestrator(&stubService{body: threeListings}, analyst).Run(context.Background(),
		models.SearchCriteria{City: "Dhaka"}, []string{"Bikroy.com"}, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Valuations, "Property valuation unavailable: analysis call panicked"))
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "valuation failed")
	assert.Equal(t, 3, strings.Count(res.Synthesis, "\n### Property "))
}

func TestRunCancelledDuringAnalysis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	analyst := defaultAnalyst()
	analyst.errs = map[string]error{marketAnalystInstruction: context.Canceled}
	analyst.onCall = cancel

	res, err := newTestOrchestrator(&stubService{body: threeListings}, analyst).Run(ctx,
		models.SearchCriteria{City: "Dhaka"}, []string{"Bikroy.com"}, nil)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StageMarket, runErr.Stage)
	assert.Len(t, analyst.calls, 1)
}
