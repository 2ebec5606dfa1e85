package crawler

import (
	"net/url"
	"strconv"
	"strings"

	"sjsage522/carlistingworker/helpers"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SautoOrigin is the public origin of Sauto
const SautoOrigin = "https://www.sauto.cz"

// NewSautoAdapter creates an adapter for Sauto. Brand and model come from the
// detail URL slug, year and mileage from the subtitle line, the rest from the
// property tiles. Sauto does not publish engine displacement reliably.
func NewSautoAdapter(origin string, filter Filter) *ConfigurableAdapter {
	return NewConfigurableAdapter(AdapterConfig{
		Name:      "sauto",
		Provider:  "Sauto",
		Origin:    origin,
		PageParam: "strana",
		Selectors: Selectors{
			DetailLink:    "a.c-item__link",
			Title:         "h1",
			Property:      `li[class*="c-car-properties__tile"], li[class*="c-car-otherProperties__tile"]`,
			PropertyLabel: `div[class*="tile-label"]`,
			PropertyValue: `div[class*="tile-value"]`,
		},
		Labels: map[Field]string{
			FieldFuel:         "Palivo",
			FieldTransmission: "Převodovka",
		},
		CustomHandlers: CustomHandlers{
			BrandModel: sautoBrandModel,
			Fields: map[Field]FieldHandler{
				FieldYear:    sautoYear,
				FieldMileage: sautoMileage,
				FieldPrice:   sautoPrice,
				FieldPower:   sautoPower,
			},
		},
		Tables: Tables{
			Brand:        BrandTable,
			Fuel:         FuelTable,
			Transmission: TransmissionTable,
		},
		Filter:      filter,
		BaseURL:     sautoBaseURL,
		FallbackURL: sautoFallbackURL,
	})
}

func sautoBaseURL(origin string, f Filter) string {
	path := origin + "/inzerce/osobni"
	if f.Brand != "" {
		path += "/" + url.PathEscape(f.Brand)
	}

	params := make([]string, 0, 3)
	if f.MinPrice != nil {
		params = append(params, "cena-od="+strconv.Itoa(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		params = append(params, "cena-do="+strconv.Itoa(*f.MaxPrice))
	}
	params = append(params, "stav=nove%2Cojete")
	return path + "?" + strings.Join(params, "&")
}

func sautoFallbackURL(origin string, f Filter) string {
	path := origin + "/inzerce/osobni"
	if f.Brand != "" {
		path += "/" + url.PathEscape(f.Brand)
	}
	return path
}

// sautoBrandModel reads /osobni/detail/mercedes-benz/tridy-c/208018649
func sautoBrandModel(_ *goquery.Document, detailURL string) (string, string, bool) {
	_, after, found := strings.Cut(detailURL, "/detail/")
	if !found {
		return "", "", false
	}
	brand, err := helpers.GetSplitPart(after, "/", 0)
	if err != nil || brand == "" {
		return "", "", false
	}
	model, err := helpers.GetSplitPart(after, "/", 1)
	if err != nil || model == "" {
		return "", "", false
	}
	// a Caser keeps state, so each extraction gets its own
	title := cases.Title(language.Czech)
	return title.String(strings.ReplaceAll(brand, "-", " ")),
		title.String(strings.ReplaceAll(model, "-", " ")),
		true
}

// sautoSubtitle splits "Ojeté, 3/2019, 123 456 km" into its comma parts
func sautoSubtitle(doc *goquery.Document) []string {
	text := helpers.CleanText(doc.Find("span.c-a-basic-info__subtitle-info").First().Text())
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func sautoYear(doc *goquery.Document, _ string) (string, bool) {
	for _, part := range sautoSubtitle(doc) {
		if strings.Contains(strings.ToLower(part), "km") {
			continue
		}
		if _, ok := helpers.ParseYear(part); ok {
			return part, true
		}
	}
	return "", false
}

func sautoMileage(doc *goquery.Document, _ string) (string, bool) {
	for _, part := range sautoSubtitle(doc) {
		if strings.Contains(strings.ToLower(part), "km") {
			return part, true
		}
	}
	return "", false
}

func sautoPrice(doc *goquery.Document, _ string) (string, bool) {
	for _, selector := range []string{"div.c-a-basic-info__price", "span.c-basic-info__price"} {
		if text := helpers.CleanText(doc.Find(selector).First().Text()); text != "" {
			return text, true
		}
	}
	return "", false
}

// sautoPower keeps the kW figure of "110 kW (150 k)" before digit stripping
func sautoPower(doc *goquery.Document, _ string) (string, bool) {
	var value string
	doc.Find(`li[class*="c-car-properties__tile"], li[class*="c-car-otherProperties__tile"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := helpers.CleanText(s.Find(`div[class*="tile-label"]`).First().Text())
		if helpers.Fold(label) != "vykon" {
			return true
		}
		value = helpers.BeforeSeparator(helpers.CleanText(s.Find(`div[class*="tile-value"]`).First().Text()), "(")
		return value == ""
	})
	return value, value != ""
}
