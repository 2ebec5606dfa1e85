package crawler

import (
	"io"
	"sort"
	"strings"

	"sjsage522/carlistingworker/helpers"
	"sjsage522/carlistingworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// BaseAdapter provides the listing-page side shared by all sites
type BaseAdapter struct {
	name          string
	provider      string
	Origin        string
	PageParam     string
	Selectors     Selectors
	recordsEngine bool
	filter        Filter
	baseURL       func(origin string, f Filter) string
	fallbackURL   func(origin string, f Filter) string
}

// Name returns the site key
func (c *BaseAdapter) Name() string {
	return c.name
}

// Provider returns the display name of the site
func (c *BaseAdapter) Provider() string {
	return c.provider
}

// RecordsEngine reports whether engine displacement is a mandatory field
func (c *BaseAdapter) RecordsEngine() bool {
	return c.recordsEngine
}

// BaseURL returns the first listing page for f
func (c *BaseAdapter) BaseURL(f Filter) string {
	if c.baseURL == nil {
		return c.Origin
	}
	return c.baseURL(c.Origin, f)
}

// FallbackURL returns the listing page without filter parameters
func (c *BaseAdapter) FallbackURL(f Filter) string {
	if c.fallbackURL == nil {
		return c.BaseURL(f)
	}
	return c.fallbackURL(c.Origin, f)
}

// BuildListingURL returns base for page 1 and appends the page parameter otherwise
func (c *BaseAdapter) BuildListingURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	return helpers.AppendQueryParam(base, c.PageParam, page)
}

// ExtractDetailLinks collects the distinct absolute detail URLs of a listing page
func (c *BaseAdapter) ExtractDetailLinks(page io.Reader) ([]string, error) {
	doc, err := c.createDocument(page)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	doc.Find(c.Selectors.DetailLink).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || strings.TrimSpace(href) == "" {
			return
		}
		seen[helpers.ResolveURL(c.Origin, href)] = struct{}{}
	})

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

// createDocument creates a goquery document from a reader
func (c *BaseAdapter) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, errors.NewParsing(c.provider, "HTML parsing failed", err)
	}
	return doc, nil
}
