package crawler

import (
	"strings"

	"sjsage522/carlistingworker/helpers"
)

// rule maps any folded text containing fragment to value
type rule struct {
	fragment string
	value    string
}

// Table maps free-text variants to a fixed vocabulary.
// Exact matches win over fragment rules; fragment rules are tried in order.
type Table struct {
	exact    map[string]string
	contains []rule
}

// NewTable builds a table; keys are folded so lookups ignore case and diacritics
func NewTable(exact map[string]string, contains ...rule) *Table {
	t := &Table{exact: make(map[string]string, len(exact)), contains: contains}
	for k, v := range exact {
		t.exact[helpers.Fold(k)] = v
	}
	return t
}

// Lookup returns the canonical value for raw, false when the text is not recognized
func (t *Table) Lookup(raw string) (string, bool) {
	folded := helpers.Fold(raw)
	if folded == "" {
		return "", false
	}
	if v, ok := t.exact[folded]; ok {
		return v, true
	}
	for _, r := range t.contains {
		if strings.Contains(folded, r.fragment) {
			return r.value, true
		}
	}
	return "", false
}

// Has reports whether raw is an exact key of the table
func (t *Table) Has(raw string) bool {
	_, ok := t.exact[helpers.Fold(raw)]
	return ok
}

// FuelTable covers Czech and English fuel labels. Hybrid is checked first
// because hybrid labels usually also name the combustion fuel.
var FuelTable = NewTable(nil,
	rule{"hybr", string(FuelHybrid)},
	rule{"plug-in", string(FuelHybrid)},
	rule{"benz", string(FuelPetrol)},
	rule{"gasol", string(FuelPetrol)},
	rule{"petrol", string(FuelPetrol)},
	rule{"dies", string(FuelDiesel)},
	rule{"naf", string(FuelDiesel)},
	rule{"elek", string(FuelElectric)},
	rule{"elect", string(FuelElectric)},
)

// TransmissionTable covers manual and automatic gearbox labels
var TransmissionTable = NewTable(nil,
	rule{"manu", string(TransmissionManual)},
	rule{"auto", string(TransmissionAutomatic)},
)

// BrandTable is strict: brands outside it fail extraction. It lists the makes
// offered by the Auto ESA and Sauto brand menus, with slug and title spellings.
var BrandTable = NewTable(map[string]string{
	"abarth":        "Abarth",
	"aiways":        "Aiways",
	"alfa":          "Alfa Romeo",
	"alfa romeo":    "Alfa Romeo",
	"alfa-romeo":    "Alfa Romeo",
	"alpina":        "Alpina",
	"alpine":        "Alpine",
	"aston martin":  "Aston Martin",
	"aston-martin":  "Aston Martin",
	"audi":          "Audi",
	"bentley":       "Bentley",
	"bmw":           "BMW",
	"byd":           "BYD",
	"cadillac":      "Cadillac",
	"chevrolet":     "Chevrolet",
	"chrysler":      "Chrysler",
	"citroen":       "Citroën",
	"cupra":         "Cupra",
	"dacia":         "Dacia",
	"daewoo":        "Daewoo",
	"daihatsu":      "Daihatsu",
	"dodge":         "Dodge",
	"ds":            "DS",
	"ferrari":       "Ferrari",
	"fiat":          "Fiat",
	"ford":          "Ford",
	"genesis":       "Genesis",
	"honda":         "Honda",
	"hummer":        "Hummer",
	"hyundai":       "Hyundai",
	"infiniti":      "Infiniti",
	"isuzu":         "Isuzu",
	"iveco":         "Iveco",
	"jaguar":        "Jaguar",
	"jeep":          "Jeep",
	"kgm":           "SsangYong",
	"kia":           "Kia",
	"lada":          "Lada",
	"lamborghini":   "Lamborghini",
	"lancia":        "Lancia",
	"land rover":    "Land Rover",
	"land-rover":    "Land Rover",
	"landrover":     "Land Rover",
	"lexus":         "Lexus",
	"lincoln":       "Lincoln",
	"lotus":         "Lotus",
	"lynk & co":     "Lynk & Co",
	"lynk co":       "Lynk & Co",
	"lynk-co":       "Lynk & Co",
	"maserati":      "Maserati",
	"maxus":         "Maxus",
	"mazda":         "Mazda",
	"mclaren":       "McLaren",
	"mercedes":      "Mercedes-Benz",
	"mercedes benz": "Mercedes-Benz",
	"mercedes-benz": "Mercedes-Benz",
	"mg":            "MG",
	"mini":          "Mini",
	"mitsubishi":    "Mitsubishi",
	"nissan":        "Nissan",
	"opel":          "Opel",
	"peugeot":       "Peugeot",
	"polestar":      "Polestar",
	"pontiac":       "Pontiac",
	"porsche":       "Porsche",
	"renault":       "Renault",
	"rolls royce":   "Rolls-Royce",
	"rolls-royce":   "Rolls-Royce",
	"rover":         "Rover",
	"saab":          "Saab",
	"seat":          "Seat",
	"skoda":         "Škoda",
	"smart":         "Smart",
	"ssang yong":    "SsangYong",
	"ssangyong":     "SsangYong",
	"subaru":        "Subaru",
	"suzuki":        "Suzuki",
	"tesla":         "Tesla",
	"toyota":        "Toyota",
	"volkswagen":    "Volkswagen",
	"volvo":         "Volvo",
	"vw":            "Volkswagen",
})

// SplitTitle derives brand and model from a detail page title. The first two
// tokens are brand and model, unless the first two tokens together form a
// brand known to table ("Land Rover Discovery"), in which case the model is
// the third token.
func SplitTitle(title string, table *Table) (brand, model string, ok bool) {
	tokens := strings.Fields(title)
	if len(tokens) >= 3 && table != nil && table.Has(tokens[0]+" "+tokens[1]) {
		return tokens[0] + " " + tokens[1], tokens[2], true
	}
	if len(tokens) < 2 {
		return "", "", false
	}
	return tokens[0], tokens[1], true
}
