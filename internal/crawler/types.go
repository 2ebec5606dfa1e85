package crawler

import (
	"io"
	"strconv"

	"sjsage522/carlistingworker/helpers"

	"github.com/PuerkitoBio/goquery"
)

// Fuel is the canonical fuel vocabulary
type Fuel string

const (
	FuelPetrol   Fuel = "Petrol"
	FuelDiesel   Fuel = "Diesel"
	FuelHybrid   Fuel = "Hybrid"
	FuelElectric Fuel = "Electric"
)

// Transmission is the canonical gearbox vocabulary
type Transmission string

const (
	TransmissionManual    Transmission = "Manual"
	TransmissionAutomatic Transmission = "Automatic"
)

// Field names a mandatory attribute of a listing
type Field string

const (
	FieldBrand        Field = "brand"
	FieldModel        Field = "model"
	FieldYear         Field = "year"
	FieldMileage      Field = "mileage"
	FieldPrice        Field = "price"
	FieldFuel         Field = "fuel"
	FieldTransmission Field = "transmission"
	FieldPower        Field = "power"
	FieldEngine       Field = "engine"
)

// ListingRecord is one complete vehicle advertisement
type ListingRecord struct {
	URL          string       `json:"url,omitempty"`
	Brand        string       `json:"brand"`
	Model        string       `json:"model"`
	Year         int          `json:"year"`
	Mileage      int          `json:"mileage_km"`
	Price        int          `json:"price"`
	Fuel         Fuel         `json:"fuel"`
	Transmission Transmission `json:"transmission"`
	Power        int          `json:"power_kw"`
	Engine       *float64     `json:"engine_l,omitempty"`
}

// IdentityKey holds every mandatory value of a record except its URL.
// It is comparable and used directly as a map key.
type IdentityKey struct {
	Brand        string
	Model        string
	Year         int
	Mileage      int
	Price        int
	Fuel         Fuel
	Transmission Transmission
	Power        int
	Engine       string
}

// Key returns the record's identity for in-run deduplication
func (r ListingRecord) Key() IdentityKey {
	key := IdentityKey{
		Brand:        r.Brand,
		Model:        r.Model,
		Year:         r.Year,
		Mileage:      r.Mileage,
		Price:        r.Price,
		Fuel:         r.Fuel,
		Transmission: r.Transmission,
		Power:        r.Power,
	}
	if r.Engine != nil {
		key.Engine = helpers.FormatLiters(*r.Engine)
	}
	return key
}

// Columns returns the persisted header, matching the dataset consumed by the cleaning stage
func Columns(withEngine bool) []string {
	if withEngine {
		return []string{"Značka", "Model", "Objem (l)", "Rok", "Najeté km", "Cena", "Palivo", "Převodovka", "Výkon (kW)"}
	}
	return []string{"Značka", "Model", "Rok", "Najeté km", "Cena", "Palivo", "Převodovka", "Výkon (kW)"}
}

// Row renders the record without its URL in Columns order
func (r ListingRecord) Row(withEngine bool) []string {
	row := []string{r.Brand, r.Model}
	if withEngine {
		engine := ""
		if r.Engine != nil {
			engine = helpers.FormatLiters(*r.Engine)
		}
		row = append(row, engine)
	}
	return append(row,
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Mileage),
		strconv.Itoa(r.Price),
		string(r.Fuel),
		string(r.Transmission),
		strconv.Itoa(r.Power),
	)
}

// Filter narrows a crawl to a brand and a price range
type Filter struct {
	Brand    string
	MinPrice *int
	MaxPrice *int
}

// Adapter interface defines the contract for every source site
type Adapter interface {
	// Name returns the site key used in configuration and file names
	Name() string

	// Provider returns the display name used in logs
	Provider() string

	// BaseURL returns the first listing page for the filter
	BaseURL(f Filter) string

	// FallbackURL returns the unfiltered listing page used when BaseURL does not answer
	FallbackURL(f Filter) string

	// BuildListingURL returns the URL of the given 1-based listing page
	BuildListingURL(base string, page int) string

	// ExtractDetailLinks returns the set of detail page URLs on a listing page
	ExtractDetailLinks(page io.Reader) ([]string, error)

	// ExtractRecord parses a detail page into a complete record or a classified failure
	ExtractRecord(page io.Reader, detailURL string) (ListingRecord, error)

	// RecordsEngine reports whether engine displacement is mandatory for this site
	RecordsEngine() bool
}

// FieldHandler locates the raw text of one field on a detail page
type FieldHandler func(doc *goquery.Document, detailURL string) (string, bool)

// BrandModelHandler resolves brand and model together
type BrandModelHandler func(doc *goquery.Document, detailURL string) (brand, model string, ok bool)

// Selectors contains CSS selectors for various elements in the page
type Selectors struct {
	DetailLink    string
	Title         string
	Price         string
	Property      string
	PropertyLabel string
	PropertyValue string
}

// CustomHandlers override the default label/value lookup per field
type CustomHandlers struct {
	BrandModel BrandModelHandler
	Fields     map[Field]FieldHandler
}

// Tables are the canonicalization tables applied by a site, nil skips the step
type Tables struct {
	Brand        *Table
	Fuel         *Table
	Transmission *Table
}

// AdapterConfig contains configuration for a site adapter
type AdapterConfig struct {
	Name           string
	Provider       string
	Origin         string
	PageParam      string
	Selectors      Selectors
	Labels         map[Field]string
	CustomHandlers CustomHandlers
	Tables         Tables
	PowerPattern   string
	RecordsEngine  bool
	Filter         Filter
	BaseURL        func(origin string, f Filter) string
	FallbackURL    func(origin string, f Filter) string
}
