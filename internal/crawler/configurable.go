package crawler

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"sjsage522/carlistingworker/helpers"
	"sjsage522/carlistingworker/logger"
	"sjsage522/carlistingworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// ConfigurableAdapter is a site adapter driven by selectors, labels and handlers
type ConfigurableAdapter struct {
	BaseAdapter
	Labels         map[Field]string
	CustomHandlers CustomHandlers
	Tables         Tables
	powerPattern   *regexp.Regexp
	log            *logger.Logger
}

// NewConfigurableAdapter creates a new configurable adapter
func NewConfigurableAdapter(config AdapterConfig) *ConfigurableAdapter {
	adapter := &ConfigurableAdapter{
		BaseAdapter: BaseAdapter{
			name:          config.Name,
			provider:      config.Provider,
			Origin:        strings.TrimRight(config.Origin, "/"),
			PageParam:     config.PageParam,
			Selectors:     config.Selectors,
			recordsEngine: config.RecordsEngine,
			filter:        config.Filter,
			baseURL:       config.BaseURL,
			fallbackURL:   config.FallbackURL,
		},
		Labels:         config.Labels,
		CustomHandlers: config.CustomHandlers,
		Tables:         config.Tables,
		log:            logger.ForAdapter(config.Provider),
	}
	if config.PowerPattern != "" {
		adapter.powerPattern = regexp.MustCompile(config.PowerPattern)
	}
	return adapter
}

// ExtractRecord parses a detail page. Any unresolved mandatory field fails the whole record.
func (c *ConfigurableAdapter) ExtractRecord(page io.Reader, detailURL string) (ListingRecord, error) {
	doc, err := c.createDocument(page)
	if err != nil {
		if ce, ok := errors.As(err); ok {
			return ListingRecord{}, ce.WithURL(detailURL)
		}
		return ListingRecord{}, err
	}

	record, ferr := c.extract(doc, detailURL)
	if ferr != nil {
		c.log.Debug().
			Str("url", detailURL).
			Str("field", ferr.Field).
			Str("reason", string(ferr.Reason)).
			Msg("Record rejected")
		return ListingRecord{}, ferr.WithURL(detailURL)
	}
	return record, nil
}

func (c *ConfigurableAdapter) extract(doc *goquery.Document, detailURL string) (ListingRecord, *errors.CrawlerError) {
	record := ListingRecord{URL: detailURL}
	var err *errors.CrawlerError

	if record.Brand, record.Model, err = c.brandModel(doc, detailURL); err != nil {
		return record, err
	}
	if record.Year, err = c.year(doc, detailURL); err != nil {
		return record, err
	}
	if record.Mileage, err = c.integer(doc, detailURL, FieldMileage); err != nil {
		return record, err
	}
	if record.Price, err = c.price(doc, detailURL); err != nil {
		return record, err
	}

	fuel, err := c.canonical(doc, detailURL, FieldFuel, c.Tables.Fuel)
	if err != nil {
		return record, err
	}
	record.Fuel = Fuel(fuel)

	transmission, err := c.canonical(doc, detailURL, FieldTransmission, c.Tables.Transmission)
	if err != nil {
		return record, err
	}
	record.Transmission = Transmission(transmission)

	if record.Power, err = c.power(doc, detailURL); err != nil {
		return record, err
	}

	if c.recordsEngine {
		raw, ok := c.text(doc, detailURL, FieldEngine)
		if !ok {
			return record, errors.NewFieldNotFound(c.provider, string(FieldEngine))
		}
		liters, ok := helpers.ParseEngineLiters(raw)
		if !ok {
			return record, errors.NewMalformedValue(c.provider, string(FieldEngine), raw)
		}
		record.Engine = &liters
	}

	return record, nil
}

// text returns the raw text of a field: custom handler first, then the
// dedicated price selector, then the label/value properties.
func (c *ConfigurableAdapter) text(doc *goquery.Document, detailURL string, field Field) (string, bool) {
	if handler, exists := c.CustomHandlers.Fields[field]; exists && handler != nil {
		value, ok := handler(doc, detailURL)
		value = helpers.CleanText(value)
		return value, ok && value != ""
	}

	if field == FieldPrice && c.Selectors.Price != "" {
		value := helpers.CleanText(doc.Find(c.Selectors.Price).First().Text())
		return value, value != ""
	}

	if label, exists := c.Labels[field]; exists {
		return c.property(doc, label)
	}

	return "", false
}

// property finds the value sitting next to a label, e.g. <li><strong>Rok</strong><span>2019</span></li>
func (c *ConfigurableAdapter) property(doc *goquery.Document, label string) (string, bool) {
	want := helpers.Fold(label)
	var value string
	found := false

	doc.Find(c.Selectors.Property).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		labelSel := s.Find(c.Selectors.PropertyLabel).First()
		if labelSel.Length() == 0 || helpers.Fold(strings.TrimSuffix(strings.TrimSpace(labelSel.Text()), ":")) != want {
			return true
		}
		valueSel := s.Find(c.Selectors.PropertyValue).First()
		if valueSel.Length() == 0 {
			return true
		}
		value = helpers.CleanText(valueSel.Text())
		found = value != ""
		return !found
	})

	return value, found
}

func (c *ConfigurableAdapter) brandModel(doc *goquery.Document, detailURL string) (string, string, *errors.CrawlerError) {
	var brand, model string
	var ok bool

	if c.CustomHandlers.BrandModel != nil {
		brand, model, ok = c.CustomHandlers.BrandModel(doc, detailURL)
	} else {
		title := helpers.CleanText(doc.Find(c.Selectors.Title).First().Text())
		if title == "" {
			return "", "", errors.NewFieldNotFound(c.provider, string(FieldBrand))
		}
		brand, model, ok = SplitTitle(title, c.Tables.Brand)
	}

	if !ok || strings.TrimSpace(brand) == "" {
		return "", "", errors.NewFieldNotFound(c.provider, string(FieldBrand))
	}
	if strings.TrimSpace(model) == "" {
		return "", "", errors.NewFieldNotFound(c.provider, string(FieldModel))
	}

	if c.Tables.Brand != nil {
		canonical, known := c.Tables.Brand.Lookup(brand)
		if !known {
			return "", "", errors.NewMalformedValue(c.provider, string(FieldBrand), brand)
		}
		brand = canonical
	}

	return brand, strings.TrimSpace(model), nil
}

func (c *ConfigurableAdapter) year(doc *goquery.Document, detailURL string) (int, *errors.CrawlerError) {
	raw, ok := c.text(doc, detailURL, FieldYear)
	if !ok {
		return 0, errors.NewFieldNotFound(c.provider, string(FieldYear))
	}
	year, ok := helpers.ParseYear(raw)
	if !ok {
		return 0, errors.NewMalformedValue(c.provider, string(FieldYear), raw)
	}
	return year, nil
}

func (c *ConfigurableAdapter) integer(doc *goquery.Document, detailURL string, field Field) (int, *errors.CrawlerError) {
	raw, ok := c.text(doc, detailURL, field)
	if !ok {
		return 0, errors.NewFieldNotFound(c.provider, string(field))
	}
	n, ok := helpers.ParseDigits(raw)
	if !ok {
		return 0, errors.NewMalformedValue(c.provider, string(field), raw)
	}
	return n, nil
}

func (c *ConfigurableAdapter) price(doc *goquery.Document, detailURL string) (int, *errors.CrawlerError) {
	price, err := c.integer(doc, detailURL, FieldPrice)
	if err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, errors.NewMalformedValue(c.provider, string(FieldPrice), strconv.Itoa(price))
	}
	if (c.filter.MinPrice != nil && price < *c.filter.MinPrice) ||
		(c.filter.MaxPrice != nil && price > *c.filter.MaxPrice) {
		return 0, errors.NewPriceOutOfRange(c.provider, price)
	}
	return price, nil
}

func (c *ConfigurableAdapter) power(doc *goquery.Document, detailURL string) (int, *errors.CrawlerError) {
	if c.powerPattern == nil {
		power, err := c.integer(doc, detailURL, FieldPower)
		if err == nil && power <= 0 {
			return 0, errors.NewMalformedValue(c.provider, string(FieldPower), strconv.Itoa(power))
		}
		return power, err
	}

	raw, ok := c.text(doc, detailURL, FieldPower)
	if !ok {
		return 0, errors.NewFieldNotFound(c.provider, string(FieldPower))
	}
	match := c.powerPattern.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0, errors.NewMalformedValue(c.provider, string(FieldPower), raw)
	}
	power, ok := helpers.ParseDigits(match[1])
	if !ok || power <= 0 {
		return 0, errors.NewMalformedValue(c.provider, string(FieldPower), raw)
	}
	return power, nil
}

func (c *ConfigurableAdapter) canonical(doc *goquery.Document, detailURL string, field Field, table *Table) (string, *errors.CrawlerError) {
	raw, ok := c.text(doc, detailURL, field)
	if !ok {
		return "", errors.NewFieldNotFound(c.provider, string(field))
	}
	if field == FieldTransmission {
		raw = helpers.BeforeSeparator(raw, "/")
		if raw == "" {
			return "", errors.NewFieldNotFound(c.provider, string(field))
		}
	}
	if table == nil {
		return raw, nil
	}
	value, known := table.Lookup(raw)
	if !known {
		return "", errors.NewMalformedValue(c.provider, string(field), raw)
	}
	return value, nil
}
