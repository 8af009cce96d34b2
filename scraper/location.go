package scraper

import "strings"

// citySynonyms maps spelling and script variants of a city to the slug the
// listing sites use in their URLs.
var citySynonyms = map[string]string{
	"dhaka":      "dhaka",
	"daka":       "dhaka",
	"ঢাকা":       "dhaka",
	"chittagong": "chittagong",
	"chattogram": "chittagong",
	"চট্টগ্রাম":  "chittagong",
	"khulna":     "khulna",
	"খুলনা":      "khulna",
	"rajshahi":   "rajshahi",
	"রাজশাহী":    "rajshahi",
	"rangpur":    "rangpur",
	"রংপুর":      "rangpur",
	"sylhet":     "sylhet",
	"সিলেট":      "sylhet",
	"barisal":    "barisal",
	"barishal":   "barisal",
	"বরিশাল":     "barisal",
	"mymensingh": "mymensingh",
	"ময়মনসিংহ":  "mymensingh",
}

// NormalizeCity lower-cases and trims a city name and maps it through the
// synonym table. Unknown names pass through lower-cased.
func NormalizeCity(city string) string {
	city = strings.ToLower(strings.TrimSpace(city))
	if slug, ok := citySynonyms[city]; ok {
		return slug
	}
	return city
}

// NormalizeLocation returns "city/area", or just "city" when area is empty.
// The area goes through the same table so a district typed as an area
// resolves to the same slug.
func NormalizeLocation(city, area string) string {
	c := NormalizeCity(city)
	a := NormalizeCity(area)
	if a != "" {
		return c + "/" + a
	}
	return c
}

// IsKnownCity reports whether city is in the synonym table in any of its
// spellings.
func IsKnownCity(city string) bool {
	_, ok := citySynonyms[strings.ToLower(strings.TrimSpace(city))]
	return ok
}
