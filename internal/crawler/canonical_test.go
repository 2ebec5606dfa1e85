package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuelTable(t *testing.T) {
	testCases := []struct {
		input  string
		expect Fuel
		ok     bool
	}{
		{"Benzín", FuelPetrol, true},
		{"Nafta", FuelDiesel, true},
		{"Diesel", FuelDiesel, true},
		{"Hybridní (benzín + elektro)", FuelHybrid, true},
		{"Elektro", FuelElectric, true},
		{"LPG + benzín", FuelPetrol, true},
		{"CNG", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		v, ok := FuelTable.Lookup(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, string(tc.expect), v, tc.input)
	}
}

func TestTransmissionTable(t *testing.T) {
	v, ok := TransmissionTable.Lookup("Manuální")
	assert.True(t, ok)
	assert.Equal(t, string(TransmissionManual), v)

	v, ok = TransmissionTable.Lookup("Automatická")
	assert.True(t, ok)
	assert.Equal(t, string(TransmissionAutomatic), v)

	_, ok = TransmissionTable.Lookup("Sekvenční")
	assert.False(t, ok)
}

func TestBrandTable(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{"ŠKODA", "Škoda"},
		{"Mercedes Benz", "Mercedes-Benz"},
		{"SsangYong", "SsangYong"},
		{"Ssang Yong", "SsangYong"},
		{"Maserati", "Maserati"},
		{"Lancia", "Lancia"},
		{"Infiniti", "Infiniti"},
		{"Bentley", "Bentley"},
		{"Chrysler", "Chrysler"},
		{"Cadillac", "Cadillac"},
		{"Saab", "Saab"},
		{"Isuzu", "Isuzu"},
		{"Polestar", "Polestar"},
		{"BYD", "BYD"},
		{"Aston Martin", "Aston Martin"},
		{"aston-martin", "Aston Martin"},
		{"Rolls-Royce", "Rolls-Royce"},
		{"Rolls Royce", "Rolls-Royce"},
		{"Lada", "Lada"},
		{"Citroen", "Citroën"},
	}

	for _, tc := range testCases {
		v, ok := BrandTable.Lookup(tc.input)
		assert.True(t, ok, tc.input)
		assert.Equal(t, tc.expect, v, tc.input)
	}

	// fragment rules are not used for brands
	_, ok := BrandTable.Lookup("Trabant")
	assert.False(t, ok)
	_, ok = BrandTable.Lookup("Mercedes-AMG")
	assert.False(t, ok)
}

func TestSplitTitle(t *testing.T) {
	brand, model, ok := SplitTitle("Volkswagen Passat 2.0 TDI", BrandTable)
	assert.True(t, ok)
	assert.Equal(t, "Volkswagen", brand)
	assert.Equal(t, "Passat", model)

	brand, model, ok = SplitTitle("Land Rover Discovery Sport", BrandTable)
	assert.True(t, ok)
	assert.Equal(t, "Land Rover", brand)
	assert.Equal(t, "Discovery", model)

	brand, model, ok = SplitTitle("Aston Martin DB11 V8", BrandTable)
	assert.True(t, ok)
	assert.Equal(t, "Aston Martin", brand)
	assert.Equal(t, "DB11", model)

	_, _, ok = SplitTitle("Škoda", BrandTable)
	assert.False(t, ok)
}
