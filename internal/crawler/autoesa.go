package crawler

import (
	"net/url"
	"strconv"
)

// AutoESAOrigin is the public origin of Auto ESA
const AutoESAOrigin = "https://www.autoesa.cz"

// NewAutoESAAdapter creates an adapter for Auto ESA. The detail page lists
// its properties as <li><strong>label</strong><span>value</span></li>.
func NewAutoESAAdapter(origin string, filter Filter) *ConfigurableAdapter {
	return NewConfigurableAdapter(AdapterConfig{
		Name:      "autoesa",
		Provider:  "AutoESA",
		Origin:    origin,
		PageParam: "stranka",
		Selectors: Selectors{
			DetailLink:    "a.car_item",
			Title:         "div.car_detail2__h1 h1",
			Price:         "div.show-more-price-right-right strong",
			Property:      "li",
			PropertyLabel: "strong",
			PropertyValue: "span",
		},
		Labels: map[Field]string{
			FieldYear:         "Rok",
			FieldMileage:      "Stav tachometru",
			FieldFuel:         "Palivo",
			FieldTransmission: "Převodovka",
			FieldPower:        "Výkon",
			FieldEngine:       "Motor",
		},
		Tables: Tables{
			Brand:        BrandTable,
			Fuel:         FuelTable,
			Transmission: TransmissionTable,
		},
		PowerPattern:  `(\d+)\s*kW`,
		RecordsEngine: true,
		Filter:        filter,
		BaseURL:       autoESABaseURL,
		FallbackURL:   autoESAFallbackURL,
	})
}

func autoESAQuery(f Filter) string {
	q := url.Values{}
	if f.MinPrice != nil {
		q.Set("cena_od", strconv.Itoa(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		q.Set("cena_do", strconv.Itoa(*f.MaxPrice))
	}
	return q.Encode()
}

func autoESABaseURL(origin string, f Filter) string {
	path := origin + "/vsechna-auta"
	if f.Brand != "" {
		path = origin + "/" + url.PathEscape(f.Brand)
	}
	if query := autoESAQuery(f); query != "" {
		return path + "?" + query
	}
	return path
}

func autoESAFallbackURL(origin string, f Filter) string {
	if f.Brand != "" {
		return origin + "/" + url.PathEscape(f.Brand)
	}
	return origin + "/vsechna-auta"
}
