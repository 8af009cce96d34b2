package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LocationPlaceholder is replaced by the normalized location slug.
const LocationPlaceholder = "{location}"

// Site is a named listing website and the URL template used to search it.
type Site struct {
	Name        string `yaml:"name"`
	URLTemplate string `yaml:"url_template"`
	Default     bool   `yaml:"default"`
}

// URL renders the template for the given normalized location.
func (s Site) URL(location string) string {
	return strings.ReplaceAll(s.URLTemplate, LocationPlaceholder, location)
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// DefaultSites returns the built-in Bangladeshi property websites.
func DefaultSites() []Site {
	return []Site{
		{Name: "Bikroy.com", URLTemplate: "https://www.bikroy.com/bn/ads/{location}/properties", Default: true},
		{Name: "Bproperty.com", URLTemplate: "https://www.bproperty.com/en/{location}/properties-for-sale/", Default: true},
		{Name: "AmarBari.com", URLTemplate: "https://www.amarbari.com/{location}/"},
		{Name: "Bdproperty.com", URLTemplate: "https://www.bdproperty.com/{location}/properties/"},
		{Name: "Chaldal Property", URLTemplate: "https://property.chaldal.com/{location}"},
		{Name: "ShareBazar", URLTemplate: "https://www.sharebazar.com.bd/{location}/properties"},
	}
}

// LoadSites reads site definitions from a YAML file. An empty path returns
// DefaultSites.
func LoadSites(path string) ([]Site, error) {
	if path == "" {
		return DefaultSites(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read sites file %q: %w", path, err)
	}
	return ParseSites(data)
}

// ParseSites decodes a YAML sites document and validates it.
func ParseSites(data []byte) ([]Site, error) {
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse sites: %w", err)
	}
	if len(f.Sites) == 0 {
		return nil, fmt.Errorf("config: sites file defines no sites")
	}

	seen := make(map[string]struct{}, len(f.Sites))
	for i, s := range f.Sites {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("config: site #%d has no name", i+1)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("config: duplicate site %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if !strings.HasPrefix(s.URLTemplate, "http") {
			return nil, fmt.Errorf("config: site %q has invalid url_template %q", s.Name, s.URLTemplate)
		}
	}
	return f.Sites, nil
}

// DefaultSelection returns the names of sites marked as selected by default.
func DefaultSelection(sites []Site) []string {
	var names []string
	for _, s := range sites {
		if s.Default {
			names = append(names, s.Name)
		}
	}
	return names
}
