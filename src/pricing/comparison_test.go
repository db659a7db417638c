package pricing

import (
	"errors"
	"reflect"
	"testing"

	"github.com/username/sigortaapp/backend/src/models"
)

func testVehicle(quotes map[string]float64) models.Vehicle {
	return models.Vehicle{
		ID:     1,
		Brand:  "Renault",
		Model:  "Clio",
		Year:   "2020",
		Quotes: quotes,
	}
}

func TestBuildComparisonFloorAndSavings(t *testing.T) {
	vehicle := testVehicle(map[string]float64{
		"A Sigorta":    9000,
		"B Sigorta":    7000,
		"Kasko Bedeli": 250000,
	})

	view, err := BuildComparison(vehicle, 8760, 1.3)
	if err != nil {
		t.Fatalf("BuildComparison: %v", err)
	}

	if !view.HasCasco || view.CascoValue != 250000 {
		t.Errorf("casco = (%v, %v), want (true, 250000)", view.HasCasco, view.CascoValue)
	}
	if len(view.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(view.Rows))
	}

	// Sorted by true premium: B (7000) before A (9000).
	if view.Rows[0].Company != "B Sigorta" || view.Rows[1].Company != "A Sigorta" {
		t.Errorf("row order = %q, %q", view.Rows[0].Company, view.Rows[1].Company)
	}
	if !view.Rows[0].Cheapest || view.Rows[1].Cheapest {
		t.Errorf("cheapest flags = %v, %v", view.Rows[0].Cheapest, view.Rows[1].Cheapest)
	}

	// B's true premium is below the floor, so display is clamped up.
	if view.Rows[0].TransferPrice != 8760 {
		t.Errorf("B transfer price = %v, want 8760", view.Rows[0].TransferPrice)
	}
	if view.Rows[0].CardPrice != 11388 {
		t.Errorf("B card price = %v, want 11388", view.Rows[0].CardPrice)
	}
	if view.Rows[1].TransferPrice != 9000 {
		t.Errorf("A transfer price = %v, want 9000", view.Rows[1].TransferPrice)
	}

	if view.MinPrice != 7000 || view.MaxPrice != 9000 {
		t.Errorf("true min/max = %v/%v, want 7000/9000", view.MinPrice, view.MaxPrice)
	}
	if view.DisplayMin != 8760 || view.DisplayMax != 9000 {
		t.Errorf("display min/max = %v/%v, want 8760/9000", view.DisplayMin, view.DisplayMax)
	}
	if view.Savings != 240 {
		t.Errorf("savings = %v, want 240", view.Savings)
	}
	if view.CheapestCompany != "B Sigorta" || view.PriciestCompany != "A Sigorta" {
		t.Errorf("cheapest/priciest = %q/%q", view.CheapestCompany, view.PriciestCompany)
	}
}

func TestBuildComparisonNoComparablePrices(t *testing.T) {
	_, err := BuildComparison(testVehicle(map[string]float64{}), 8760, 1.3)
	if !errors.Is(err, ErrNoComparablePrices) {
		t.Errorf("empty quotes: err = %v, want ErrNoComparablePrices", err)
	}

	_, err = BuildComparison(testVehicle(map[string]float64{"Kasko Bedeli": 250000}), 8760, 1.3)
	if !errors.Is(err, ErrNoComparablePrices) {
		t.Errorf("casco only: err = %v, want ErrNoComparablePrices", err)
	}
}

func TestBuildComparisonCascoFirstMatchOnly(t *testing.T) {
	// Two entries carry a casco marker; only the alphabetically first one is
	// extracted, the other stays a (mispriced) row.
	vehicle := testVehicle(map[string]float64{
		"Araç Kasko Değeri": 300000,
		"Kasko Bedeli":      250000,
		"X Sigorta":         12000,
	})

	view, err := BuildComparison(vehicle, 8760, 1.3)
	if err != nil {
		t.Fatalf("BuildComparison: %v", err)
	}
	if view.CascoValue != 300000 {
		t.Errorf("casco value = %v, want 300000 (alphabetically first marker entry)", view.CascoValue)
	}
	if len(view.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(view.Rows))
	}
	if _, ok := view.Offer("Kasko Bedeli"); !ok {
		t.Errorf("second marker entry should remain a row")
	}
}

func TestBuildComparisonDeterministic(t *testing.T) {
	vehicle := testVehicle(map[string]float64{
		"C Sigorta": 10000,
		"A Sigorta": 10000,
		"B Sigorta": 9500,
	})

	first, err := BuildComparison(vehicle, 8760, 1.3)
	if err != nil {
		t.Fatalf("BuildComparison: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := BuildComparison(vehicle, 8760, 1.3)
		if err != nil {
			t.Fatalf("BuildComparison: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}

	// Tied premiums keep alphabetical order.
	if first.Rows[1].Company != "A Sigorta" || first.Rows[2].Company != "C Sigorta" {
		t.Errorf("tie order = %q, %q, want A Sigorta then C Sigorta", first.Rows[1].Company, first.Rows[2].Company)
	}
	if !first.Rows[0].Cheapest {
		t.Errorf("B Sigorta should be cheapest")
	}
	if first.Rows[1].PctOverMin == 0 {
		t.Errorf("A Sigorta should show a percentage over the minimum")
	}
}

func TestBuildComparisonNoFloorNeeded(t *testing.T) {
	vehicle := testVehicle(map[string]float64{
		"A Sigorta": 15000,
		"B Sigorta": 20000,
	})

	view, err := BuildComparison(vehicle, 8760, 1.3)
	if err != nil {
		t.Fatalf("BuildComparison: %v", err)
	}
	if view.DisplayMin != 15000 || view.DisplayMax != 20000 {
		t.Errorf("display min/max = %v/%v", view.DisplayMin, view.DisplayMax)
	}
	if view.Savings != 5000 {
		t.Errorf("savings = %v, want 5000", view.Savings)
	}
	if view.Rows[0].CardPrice != 19500 {
		t.Errorf("card price = %v, want 19500", view.Rows[0].CardPrice)
	}
	if view.HasCasco {
		t.Errorf("no casco entry expected")
	}
}

func TestBuildComparisonSingleRow(t *testing.T) {
	vehicle := testVehicle(map[string]float64{
		"A Sigorta":    9000,
		"Kasko Bedeli": 250000,
	})

	view, err := BuildComparison(vehicle, 8760, 1.3)
	if err != nil {
		t.Fatalf("BuildComparison: %v", err)
	}
	if len(view.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(view.Rows))
	}
	if view.MinPrice != view.MaxPrice {
		t.Errorf("min/max = %v/%v, want equal", view.MinPrice, view.MaxPrice)
	}
	if view.Savings != 0 {
		t.Errorf("savings = %v, want 0", view.Savings)
	}
	if view.CheapestCompany != "A Sigorta" || view.PriciestCompany != "A Sigorta" {
		t.Errorf("cheapest/priciest = %q/%q", view.CheapestCompany, view.PriciestCompany)
	}
}

func TestOfferLookup(t *testing.T) {
	vehicle := testVehicle(map[string]float64{
		"A Sigorta": 9000,
		"B Sigorta": 7000,
	})
	view, err := BuildComparison(vehicle, 8760, 1.3)
	if err != nil {
		t.Fatalf("BuildComparison: %v", err)
	}

	row, ok := view.Offer("B Sigorta")
	if !ok {
		t.Fatalf("Offer(B Sigorta) not found")
	}
	if row.TransferPrice != 8760 || row.CardPrice != 11388 {
		t.Errorf("offer prices = %v/%v", row.TransferPrice, row.CardPrice)
	}
	if _, ok := view.Offer("Yok Sigorta"); ok {
		t.Errorf("unknown company should not resolve")
	}
}
