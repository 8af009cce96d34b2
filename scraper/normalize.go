package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"property-agent/models"
)

// NormalizeResponse accepts either response shape an extraction service may
// produce and returns the listing sequence plus the reported count:
//
//	{"success": true, "data": {"properties": [...], "total_count": N}}
//	{"properties": [...], "total_count": N}
//
// "data" may also arrive as a JSON-encoded string. An explicit
// success=false is an error; any other unrecognized document yields no
// listings.
func NormalizeResponse(raw []byte) ([]models.Listing, int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, 0, errors.New("empty response")
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}

	if rawSuccess, ok := doc["success"]; ok {
		var success bool
		_ = json.Unmarshal(rawSuccess, &success)
		if !success {
			var msg string
			_ = json.Unmarshal(doc["error"], &msg)
			if msg == "" {
				msg = "service reported failure"
			}
			return nil, 0, errors.New(msg)
		}

		data, err := unwrapData(doc["data"])
		if err != nil {
			return nil, 0, err
		}
		return decodePayload(data)
	}

	if _, ok := doc["properties"]; ok {
		return decodePayload(doc)
	}

	return nil, 0, nil
}

func unwrapData(raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]json.RawMessage{}, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decode data string: %w", err)
		}
		raw = []byte(inner)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return data, nil
}

func decodePayload(data map[string]json.RawMessage) ([]models.Listing, int, error) {
	var items []map[string]any
	if raw, ok := data["properties"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, 0, fmt.Errorf("decode properties: %w", err)
		}
	}

	var count any
	if raw, ok := data["total_count"]; ok {
		_ = json.Unmarshal(raw, &count)
	}

	listings := make([]models.Listing, 0, len(items))
	for _, item := range items {
		listings = append(listings, listingFromMap(item))
	}
	return listings, asInt(count), nil
}

// listingFromMap is lenient about field types: models often return numbers
// where strings were asked for.
func listingFromMap(m map[string]any) models.Listing {
	return models.Listing{
		Address:      asString(m["address"]),
		Price:        asString(m["price"]),
		Bedrooms:     asString(m["bedrooms"]),
		Bathrooms:    asString(m["bathrooms"]),
		Area:         asString(m["area"]),
		PropertyType: asString(m["property_type"]),
		LocationType: asString(m["location_type"]),
		Description:  asString(m["description"]),
		Features:     asStrings(m["features"]),
		Images:       asStrings(m["images"]),
		ContactInfo:  asString(m["contact_info"]),
		ListingURL:   asString(m["listing_url"]),
		Negotiable:   asBool(m["negotiable"]),
		Amenities:    asStrings(m["amenities"]),
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := strings.TrimSpace(asString(e)); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return nil
}

func asBool(v any) *bool {
	var b bool
	switch t := v.(type) {
	case bool:
		b = t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "negotiable":
			b = true
		case "false", "no", "fixed":
			b = false
		default:
			return nil
		}
	default:
		return nil
	}
	return &b
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err == nil {
			return n
		}
	}
	return 0
}
