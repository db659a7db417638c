package pricing

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/username/sigortaapp/backend/src/models"
)

// ErrNoComparablePrices is returned when a vehicle's quote set is empty or
// contains only the casco value, leaving nothing to compare.
var ErrNoComparablePrices = errors.New("quote set contains no comparable insurer prices")

// cascoMarkers flag a quote entry as the vehicle's own insured value rather
// than an insurer premium. Substring matching is intentionally what the
// product has always done; a company whose name happens to contain one of
// these would be excluded too.
var cascoMarkers = []string{"kasko", "bedeli"}

// Row is a single insurer offer prepared for display. Price is the true
// quoted premium; TransferPrice is the floor-adjusted wire-transfer price
// that is actually shown and charged, and CardPrice the derived card-payment
// price.
type Row struct {
	Company       string  `json:"company"`
	Price         float64 `json:"price"`
	TransferPrice float64 `json:"transferPrice"`
	CardPrice     float64 `json:"cardPrice"`
	Cheapest      bool    `json:"cheapest"`
	DiffFromMin   float64 `json:"diffFromMin"`
	PctOverMin    float64 `json:"pctOverMin"`
}

// ComparisonView is everything the results page needs, derived once per
// quote set. Min/Max are over true premiums; DisplayMin/DisplayMax and
// Savings are floor-adjusted.
type ComparisonView struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  string `json:"year"`

	Rows []Row `json:"rows"`

	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
	DisplayMin float64 `json:"displayMin"`
	DisplayMax float64 `json:"displayMax"`
	Savings    float64 `json:"savings"`

	CheapestCompany string `json:"cheapestCompany"`
	PriciestCompany string `json:"priciestCompany"`

	CascoValue float64 `json:"cascoValue,omitempty"`
	HasCasco   bool    `json:"hasCasco"`
}

// Offer returns the floor-adjusted transfer price and card price for the
// named company, if it is present in the comparison.
func (v *ComparisonView) Offer(company string) (Row, bool) {
	for _, row := range v.Rows {
		if row.Company == company {
			return row, true
		}
	}
	return Row{}, false
}

// BuildComparison derives the full results view from a vehicle's quote set.
// It is pure: the same vehicle, floor and markup always produce the same
// view. Map iteration order is pinned by scanning companies alphabetically,
// so ties and the casco scan are deterministic; rows are then stable-sorted
// ascending by true premium.
func BuildComparison(vehicle models.Vehicle, floor, markup float64) (*ComparisonView, error) {
	companies := make([]string, 0, len(vehicle.Quotes))
	for company := range vehicle.Quotes {
		companies = append(companies, company)
	}
	sort.Strings(companies)

	view := &ComparisonView{
		Brand: vehicle.Brand,
		Model: vehicle.Model,
		Year:  vehicle.Year,
	}

	rows := make([]Row, 0, len(companies))
	for _, company := range companies {
		if !view.HasCasco && isCascoEntry(company) {
			view.HasCasco = true
			view.CascoValue = vehicle.Quotes[company]
			continue
		}
		rows = append(rows, Row{Company: company, Price: vehicle.Quotes[company]})
	}

	if len(rows) == 0 {
		return nil, ErrNoComparablePrices
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Price < rows[j].Price })

	minPrice := rows[0].Price
	maxPrice := rows[len(rows)-1].Price

	for i := range rows {
		rows[i].TransferPrice = applyFloor(rows[i].Price, floor)
		rows[i].CardPrice = math.Round(rows[i].TransferPrice * markup)
		rows[i].Cheapest = rows[i].Price == minPrice
		rows[i].DiffFromMin = rows[i].Price - minPrice
		if minPrice > 0 {
			rows[i].PctOverMin = (rows[i].Price - minPrice) / minPrice * 100
		}
	}

	view.Rows = rows
	view.MinPrice = minPrice
	view.MaxPrice = maxPrice
	view.DisplayMin = applyFloor(minPrice, floor)
	view.DisplayMax = applyFloor(maxPrice, floor)
	view.Savings = view.DisplayMax - view.DisplayMin
	view.CheapestCompany = rows[0].Company
	view.PriciestCompany = rows[len(rows)-1].Company

	return view, nil
}

// applyFloor clamps a displayed price upward to the configured minimum.
// Sorting always uses true prices; the floor affects presentation only.
func applyFloor(price, floor float64) float64 {
	if price < floor {
		return floor
	}
	return price
}

func isCascoEntry(company string) bool {
	lower := strings.ToLower(company)
	for _, marker := range cascoMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
