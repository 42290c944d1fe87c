// Package catalog holds the static park data: the attraction and show list,
// curated fallback attributes, and the aliases used by the live feed. A
// default catalog is embedded; a TOML file can replace it at runtime.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/couchcryptid/ride-height-service/internal/domain"
)

//go:embed catalog.toml
var embedded []byte

// Attraction is one catalog entry. Fallback is nil when no curated data
// exists for the attraction.
type Attraction struct {
	Slug      string             `toml:"slug"`
	Name      string             `toml:"name"`
	NameDutch string             `toml:"name_dutch"`
	Kind      string             `toml:"kind"`
	KindDutch string             `toml:"kind_dutch"`
	Notes     string             `toml:"notes"`
	Fallback  *domain.Attributes `toml:"fallback"`
}

// Show is a catalog show entry.
type Show struct {
	Slug      string `toml:"slug"`
	Name      string `toml:"name"`
	NameDutch string `toml:"name_dutch"`
	Kind      string `toml:"kind"`
	Notes     string `toml:"notes"`
}

// Catalog is the decoded catalog document.
type Catalog struct {
	Attractions []Attraction      `toml:"attraction"`
	Shows       []Show            `toml:"show"`
	Aliases     map[string]string `toml:"aliases"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(embedded))
}

// Load reads the catalog at path, or the embedded one when path is empty.
// The result is validated.
func Load(path string) (*Catalog, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func read(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse decodes a catalog document. Unknown keys are rejected so a typo in a
// fallback entry does not silently drop a height.
func Parse(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// Validate reports every problem in the catalog at once.
func (c *Catalog) Validate() error {
	var errs []error

	names := make(map[string]bool, len(c.Attractions))
	slugs := make(map[string]bool, len(c.Attractions))
	for i, a := range c.Attractions {
		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, fmt.Errorf("attraction %d: name must be set", i))
			continue
		}
		if strings.TrimSpace(a.Slug) == "" {
			errs = append(errs, fmt.Errorf("attraction %q: slug must be set", a.Name))
		}
		if names[a.Name] {
			errs = append(errs, fmt.Errorf("attraction %q: duplicate name", a.Name))
		}
		if a.Slug != "" && slugs[a.Slug] {
			errs = append(errs, fmt.Errorf("attraction %q: duplicate slug %q", a.Name, a.Slug))
		}
		names[a.Name] = true
		slugs[a.Slug] = true

		if a.Fallback != nil {
			if err := validateFallback(*a.Fallback); err != nil {
				errs = append(errs, fmt.Errorf("attraction %q: %w", a.Name, err))
			}
		}
	}

	for i, s := range c.Shows {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Slug) == "" {
			errs = append(errs, fmt.Errorf("show %d: name and slug must be set", i))
		}
	}

	for alias, target := range c.Aliases {
		if !names[target] {
			errs = append(errs, fmt.Errorf("alias %q: unknown attraction %q", alias, target))
		}
	}

	return errors.Join(errs...)
}

func validateFallback(a domain.Attributes) error {
	for _, f := range []struct {
		name  string
		value *int
	}{
		{domain.FieldMinHeight, a.MinHeightCM},
		{domain.FieldSupervisionHeight, a.SupervisionHeightCM},
		{domain.FieldCompanionAge, a.CompanionMinAge},
		{domain.FieldAdvisoryAge, a.AdvisoryAge},
	} {
		if f.value != nil && *f.value <= 0 {
			return fmt.Errorf("fallback %s must be positive, got %d", f.name, *f.value)
		}
	}
	switch a.Access.Wheelchair {
	case "", domain.WheelchairAccessible, domain.WheelchairTransfer, domain.WheelchairNotAccessible:
	default:
		return fmt.Errorf("fallback access.wheelchair %q is not recognized", a.Access.Wheelchair)
	}
	return domain.ValidateAttributes(a)
}

// FallbackTable returns the curated attributes keyed by attraction name.
// Catalog notes are part of the fallback entry.
func (c *Catalog) FallbackTable() domain.FallbackTable {
	table := make(domain.FallbackTable, len(c.Attractions))
	for _, a := range c.Attractions {
		if a.Fallback == nil && a.Notes == "" {
			continue
		}
		var entry domain.Attributes
		if a.Fallback != nil {
			entry = *a.Fallback
		}
		if entry.Notes == "" {
			entry.Notes = a.Notes
		}
		table[a.Name] = entry
	}
	return table
}

// IdentityTable returns the feed alias table.
func (c *Catalog) IdentityTable() domain.IdentityTable {
	return domain.NewIdentityTable(c.Aliases)
}

// BaseRecords returns one attribute-free record per attraction with its page
// URL under baseURL.
func (c *Catalog) BaseRecords(baseURL string) []domain.AttractionRecord {
	out := make([]domain.AttractionRecord, 0, len(c.Attractions))
	for _, a := range c.Attractions {
		out = append(out, domain.AttractionRecord{
			Name:      a.Name,
			NameDutch: a.NameDutch,
			Kind:      a.Kind,
			KindDutch: a.KindDutch,
			URL:       pageURL(baseURL, a.Slug),
		})
	}
	return out
}

// ShowRecords returns the shows with their page URLs under baseURL.
func (c *Catalog) ShowRecords(baseURL string) []domain.ShowRecord {
	out := make([]domain.ShowRecord, 0, len(c.Shows))
	for _, s := range c.Shows {
		out = append(out, domain.ShowRecord{
			Name:      s.Name,
			NameDutch: s.NameDutch,
			Kind:      s.Kind,
			Notes:     s.Notes,
			URL:       pageURL(baseURL, s.Slug),
		})
	}
	return out
}

// Slug returns the page slug for an attraction name.
func (c *Catalog) Slug(name string) (string, bool) {
	for _, a := range c.Attractions {
		if a.Name == name {
			return a.Slug, true
		}
	}
	return "", false
}

func pageURL(base, slug string) string {
	if base == "" {
		return ""
	}
	u, err := url.JoinPath(base, slug)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + slug
	}
	return u
}
