package crawler

import (
	"bytes"
	"strings"
	"testing"

	"sjsage522/carlistingworker/logger"
	"sjsage522/carlistingworker/pkg/errors"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const autoESAListing = `<html><body>
<div class="cars">
  <a class="car_item" href="/skoda/octavia-combi-2-0-tdi-1234">Octavia</a>
  <a class="car_item" href="https://www.autoesa.cz/bmw/x3-20d-5678">X3</a>
  <a class="car_item" href="/skoda/octavia-combi-2-0-tdi-1234">Octavia again</a>
  <a class="car_item" href="">empty</a>
  <a class="other" href="/kontakt">Kontakt</a>
</div>
</body></html>`

const autoESADetail = `<html><body>
<div class="car_detail2__h1"><h1>Škoda Octavia Combi 2.0 TDI Style</h1></div>
<ul>
  <li><strong>Rok</strong><span>3/2019</span></li>
  <li><strong>Stav tachometru</strong><span>123&nbsp;456 km</span></li>
  <li><strong>Palivo</strong><span>Nafta</span></li>
  <li><strong>Převodovka</strong><span>Automatická / 7 stupňů</span></li>
  <li><strong>Výkon</strong><span>110 kW (150 koní)</span></li>
  <li><strong>Motor</strong><span>1 968 cm³</span></li>
</ul>
<div class="show-more-price-right-right"><strong>489 900 Kč</strong></div>
</body></html>`

func intPtr(v int) *int { return &v }

func TestAutoESAExtractDetailLinks(t *testing.T) {
	adapter := NewAutoESAAdapter(AutoESAOrigin, Filter{})

	links, err := adapter.ExtractDetailLinks(strings.NewReader(autoESAListing))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.autoesa.cz/bmw/x3-20d-5678",
		"https://www.autoesa.cz/skoda/octavia-combi-2-0-tdi-1234",
	}, links)
}

func TestAutoESAExtractDetailLinksEmptyPage(t *testing.T) {
	adapter := NewAutoESAAdapter(AutoESAOrigin, Filter{})

	links, err := adapter.ExtractDetailLinks(strings.NewReader(`<html><body><p>Nic nenalezeno</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestAutoESAExtractRecord(t *testing.T) {
	adapter := NewAutoESAAdapter(AutoESAOrigin, Filter{})
	url := "https://www.autoesa.cz/skoda/octavia-combi-2-0-tdi-1234"

	record, err := adapter.ExtractRecord(strings.NewReader(autoESADetail), url)
	require.NoError(t, err)

	assert.Equal(t, url, record.URL)
	assert.Equal(t, "Škoda", record.Brand)
	assert.Equal(t, "Octavia", record.Model)
	assert.Equal(t, 2019, record.Year)
	assert.Equal(t, 123456, record.Mileage)
	assert.Equal(t, 489900, record.Price)
	assert.Equal(t, FuelDiesel, record.Fuel)
	assert.Equal(t, TransmissionAutomatic, record.Transmission)
	assert.Equal(t, 110, record.Power)
	require.NotNil(t, record.Engine)
	assert.InDelta(t, 2.0, *record.Engine, 0.0001)
}

func TestAutoESAExtractRecordFailures(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(string) string
		filter Filter
		reason errors.Reason
		field  string
	}{
		{
			name:   "missing engine",
			mutate: func(s string) string { return strings.Replace(s, "<strong>Motor</strong>", "<strong>Barva</strong>", 1) },
			reason: errors.ReasonFieldNotFound,
			field:  "engine",
		},
		{
			name:   "missing mileage",
			mutate: func(s string) string { return strings.Replace(s, "Stav tachometru", "Počet dveří", 1) },
			reason: errors.ReasonFieldNotFound,
			field:  "mileage",
		},
		{
			name:   "power without kW",
			mutate: func(s string) string { return strings.Replace(s, "110 kW (150 koní)", "150 koní", 1) },
			reason: errors.ReasonMalformedValue,
			field:  "power",
		},
		{
			name:   "unknown fuel",
			mutate: func(s string) string { return strings.Replace(s, "Nafta", "CNG", 1) },
			reason: errors.ReasonMalformedValue,
			field:  "fuel",
		},
		{
			name:   "unknown brand",
			mutate: func(s string) string { return strings.Replace(s, "Škoda Octavia", "Trabant 601", 1) },
			reason: errors.ReasonMalformedValue,
			field:  "brand",
		},
		{
			name:   "title with one token",
			mutate: func(s string) string { return strings.Replace(s, "Škoda Octavia Combi 2.0 TDI Style", "Škoda", 1) },
			reason: errors.ReasonFieldNotFound,
			field:  "brand",
		},
		{
			name:   "price above range",
			mutate: func(s string) string { return s },
			filter: Filter{MaxPrice: intPtr(400000)},
			reason: errors.ReasonPriceOutOfRange,
			field:  "price",
		},
		{
			name:   "missing price",
			mutate: func(s string) string { return strings.Replace(s, "489 900 Kč", "", 1) },
			reason: errors.ReasonFieldNotFound,
			field:  "price",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			adapter := NewAutoESAAdapter(AutoESAOrigin, tc.filter)
			url := "https://www.autoesa.cz/detail/1"

			_, err := adapter.ExtractRecord(strings.NewReader(tc.mutate(autoESADetail)), url)
			require.Error(t, err)

			ce, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeExtraction, ce.Type)
			assert.Equal(t, tc.reason, ce.Reason)
			assert.Equal(t, tc.field, ce.Field)
			assert.Equal(t, url, ce.URL)
		})
	}
}

func TestAutoESAExtractRecordLessCommonBrands(t *testing.T) {
	testCases := []struct {
		title string
		brand string
		model string
	}{
		{"SsangYong Korando 2.2", "SsangYong", "Korando"},
		{"Maserati Levante S", "Maserati", "Levante"},
		{"Lancia Ypsilon 1.2", "Lancia", "Ypsilon"},
		{"Infiniti Q50 2.2d", "Infiniti", "Q50"},
		{"Aston Martin DBX 4.0 V8", "Aston Martin", "DBX"},
	}

	adapter := NewAutoESAAdapter(AutoESAOrigin, Filter{})
	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			html := strings.Replace(autoESADetail, "Škoda Octavia Combi 2.0 TDI Style", tc.title, 1)

			record, err := adapter.ExtractRecord(strings.NewReader(html), "https://www.autoesa.cz/detail/1")
			require.NoError(t, err)
			assert.Equal(t, tc.brand, record.Brand)
			assert.Equal(t, tc.model, record.Model)
		})
	}
}

func TestAutoESAExtractRecordLogsRejection(t *testing.T) {
	var buf bytes.Buffer
	previous, previousLevel := logger.Default, zerolog.GlobalLevel()
	logger.Default = logger.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		logger.Default = previous
		zerolog.SetGlobalLevel(previousLevel)
	})

	adapter := NewAutoESAAdapter(AutoESAOrigin, Filter{})
	html := strings.Replace(autoESADetail, "Nafta", "CNG", 1)

	_, err := adapter.ExtractRecord(strings.NewReader(html), "https://www.autoesa.cz/detail/7")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"provider":"AutoESA"`)
	assert.Contains(t, out, `"field":"fuel"`)
	assert.Contains(t, out, `"reason":"malformed_value"`)
	assert.Contains(t, out, `"url":"https://www.autoesa.cz/detail/7"`)
}

func TestAutoESAPriceWithinRange(t *testing.T) {
	adapter := NewAutoESAAdapter(AutoESAOrigin, Filter{MinPrice: intPtr(400000), MaxPrice: intPtr(600000)})

	record, err := adapter.ExtractRecord(strings.NewReader(autoESADetail), "https://www.autoesa.cz/detail/1")
	require.NoError(t, err)
	assert.Equal(t, 489900, record.Price)
}

func TestAutoESAURLs(t *testing.T) {
	adapter := NewAutoESAAdapter(AutoESAOrigin, Filter{})

	all := Filter{MinPrice: intPtr(400000), MaxPrice: intPtr(600000)}
	assert.Equal(t, "https://www.autoesa.cz/vsechna-auta?cena_do=600000&cena_od=400000", adapter.BaseURL(all))
	assert.Equal(t, "https://www.autoesa.cz/vsechna-auta", adapter.FallbackURL(all))

	brand := Filter{Brand: "skoda", MinPrice: intPtr(400000)}
	assert.Equal(t, "https://www.autoesa.cz/skoda?cena_od=400000", adapter.BaseURL(brand))
	assert.Equal(t, "https://www.autoesa.cz/skoda", adapter.FallbackURL(brand))

	assert.Equal(t, "https://www.autoesa.cz/vsechna-auta", adapter.BaseURL(Filter{}))
}

func TestBuildListingURL(t *testing.T) {
	adapter := NewAutoESAAdapter(AutoESAOrigin, Filter{})

	withQuery := "https://www.autoesa.cz/vsechna-auta?cena_od=400000"
	assert.Equal(t, withQuery, adapter.BuildListingURL(withQuery, 1))
	assert.Equal(t, withQuery+"&stranka=3", adapter.BuildListingURL(withQuery, 3))

	bare := "https://www.autoesa.cz/skoda"
	assert.Equal(t, bare+"?stranka=2", adapter.BuildListingURL(bare, 2))
}
