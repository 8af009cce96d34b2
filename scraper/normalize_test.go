package scraper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-agent/models"
)

func TestNormalizeResponseShapes(t *testing.T) {
	want := []models.Listing{
		{Address: "Flat 4B, Dhanmondi", Price: "1.2 crore BDT"},
		{Address: "Plot 7, Uttara", Price: "80 lakh BDT"},
	}

	tests := []struct {
		name string
		body string
	}{
		{"envelope", `{"success": true, "data": {"properties": [{"address": "Flat 4B, Dhanmondi", "price": "1.2 crore BDT"}, {"address": "Plot 7, Uttara", "price": "80 lakh BDT"}], "total_count": 2}}`},
		{"plain mapping", `{"properties": [{"address": "Flat 4B, Dhanmondi", "price": "1.2 crore BDT"}, {"address": "Plot 7, Uttara", "price": "80 lakh BDT"}], "total_count": 2}`},
		{"data as string", `{"success": true, "data": "{\"properties\": [{\"address\": \"Flat 4B, Dhanmondi\", \"price\": \"1.2 crore BDT\"}, {\"address\": \"Plot 7, Uttara\", \"price\": \"80 lakh BDT\"}], \"total_count\": \"2\"}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, count, err := NormalizeResponse([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, 2, count)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("listings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeResponseLenientTypes(t *testing.T) {
	body := `{"properties": [{"address": "A", "bedrooms": 3, "bathrooms": 2.5, "features": ["lift", "", "parking"], "images": "https://img/1.jpg", "negotiable": "yes"}], "total_count": 1}`
	got, _, err := NormalizeResponse([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 1)

	l := got[0]
	assert.Equal(t, "3", l.Bedrooms)
	assert.Equal(t, "2.5", l.Bathrooms)
	assert.Equal(t, []string{"lift", "parking"}, l.Features)
	assert.Equal(t, []string{"https://img/1.jpg"}, l.Images)
	require.NotNil(t, l.Negotiable)
	assert.True(t, *l.Negotiable)
}

func TestNormalizeResponseUnexpectedShapes(t *testing.T) {
	got, count, err := NormalizeResponse([]byte(`{"status": "processing"}`))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, count)

	got, _, err = NormalizeResponse([]byte(`{"success": true, "data": null}`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, _, err = NormalizeResponse([]byte(`not json`))
	assert.Error(t, err)

	_, _, err = NormalizeResponse(nil)
	assert.Error(t, err)

	_, _, err = NormalizeResponse([]byte(`{"success": false}`))
	assert.EqualError(t, err, "service reported failure")
}
