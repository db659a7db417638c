package wizard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.L = slog.New(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

// stubCatalog lets each test script the remote backend.
type stubCatalog struct {
	brands  func(ctx context.Context) ([]string, error)
	models  func(ctx context.Context, brand string) ([]string, error)
	years   func(ctx context.Context, brand, model string) ([]string, error)
	vehicle func(ctx context.Context, brand, model, year string) (*models.Vehicle, error)
}

func (s *stubCatalog) Brands(ctx context.Context) ([]string, error) {
	if s.brands == nil {
		return []string{"Renault", "Fiat"}, nil
	}
	return s.brands(ctx)
}

func (s *stubCatalog) Models(ctx context.Context, brand string) ([]string, error) {
	if s.models == nil {
		return []string{"Clio"}, nil
	}
	return s.models(ctx, brand)
}

func (s *stubCatalog) Years(ctx context.Context, brand, model string) ([]string, error) {
	if s.years == nil {
		return []string{"2020", "2021"}, nil
	}
	return s.years(ctx, brand, model)
}

func (s *stubCatalog) Vehicle(ctx context.Context, brand, model, year string) (*models.Vehicle, error) {
	if s.vehicle == nil {
		return &models.Vehicle{
			ID:    1,
			Brand: brand,
			Model: model,
			Year:  year,
			Quotes: map[string]float64{
				"A Sigorta":    9000,
				"B Sigorta":    7000,
				"Kasko Bedeli": 250000,
			},
		}, nil
	}
	return s.vehicle(ctx, brand, model, year)
}

func newTestMachine(catalog Catalog) *Machine {
	return NewMachine(catalog, 0, 0, 8760, 1.3)
}

func validIdentity() IdentityInput {
	return IdentityInput{
		NationalID:     "12345678901",
		DocumentSerial: "A49L2955",
		FirstName:      "Ayşe",
		LastName:       "Yılmaz",
		Phone:          "5321234567",
	}
}

func validRegistration() RegistrationInput {
	return RegistrationInput{
		RegistrationSeries: "HU",
		RegistrationNumber: "779350",
		PlateRegion:        "34",
		PlateLetters:       "ABC",
		PlateDigits:        "123",
	}
}

// advance drives a fresh session to vehicle selection.
func advanceToVehicleSelection(t *testing.T, m *Machine, s *Session) {
	t.Helper()
	ctx := context.Background()
	if err := m.SubmitIdentity(ctx, s, validIdentity()); err != nil {
		t.Fatalf("SubmitIdentity: %v", err)
	}
	if err := m.SubmitRegistration(ctx, s, validRegistration()); err != nil {
		t.Fatalf("SubmitRegistration: %v", err)
	}
}

func TestSubmitIdentityValidationFailure(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t1")

	in := validIdentity()
	in.NationalID = "123"
	in.Phone = "4321234567"

	err := m.SubmitIdentity(context.Background(), s, in)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if s.Step() != StepIdentity {
		t.Errorf("step = %v, want identity", s.Step())
	}

	view := s.Snapshot()
	if view.Errors["tcKimlik"] != "TC Kimlik No 11 haneli olmalıdır" {
		t.Errorf("tcKimlik error = %q", view.Errors["tcKimlik"])
	}
	if view.Errors["telefon"] != "Telefon 5XXXXXXXXX formatında olmalıdır" {
		t.Errorf("telefon error = %q", view.Errors["telefon"])
	}
	if _, ok := view.Errors["ad"]; ok {
		t.Errorf("valid field should carry no error")
	}
}

func TestSubmitIdentitySanitizesInput(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t2")

	in := validIdentity()
	in.NationalID = "123 456 789 01"
	in.DocumentSerial = "a49l-2955"

	if err := m.SubmitIdentity(context.Background(), s, in); err != nil {
		t.Fatalf("SubmitIdentity: %v", err)
	}
	view := s.Snapshot()
	if view.Form.NationalID != "12345678901" {
		t.Errorf("national id = %q", view.Form.NationalID)
	}
	if view.Form.DocumentSerial != "A49L2955" {
		t.Errorf("document serial = %q", view.Form.DocumentSerial)
	}
	if s.Step() != StepRegistration {
		t.Errorf("step = %v, want registration", s.Step())
	}
}

func TestActionsRejectedOnWrongStep(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t3")
	ctx := context.Background()

	if err := m.SubmitRegistration(ctx, s, validRegistration()); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("registration on step 1: err = %v", err)
	}
	if err := m.SelectBrand(ctx, s, "Renault"); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("brand on step 1: err = %v", err)
	}
	if _, err := m.RequestQuote(ctx, s); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("quote on step 1: err = %v", err)
	}
	if err := m.Back(s); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("back on step 1: err = %v", err)
	}
	if err := m.NewQuery(s); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("new query on step 1: err = %v", err)
	}
}

func TestRegistrationAdvancesAndLoadsBrands(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t4")
	advanceToVehicleSelection(t, m, s)

	view := s.Snapshot()
	if view.Step != int(StepVehicleSelection) {
		t.Fatalf("step = %d", view.Step)
	}
	if len(view.Brands) != 2 || view.Brands[0] != "Renault" {
		t.Errorf("brands = %v", view.Brands)
	}
}

func TestRegistrationAdvancesDespiteBrandFetchFailure(t *testing.T) {
	m := newTestMachine(&stubCatalog{
		brands: func(ctx context.Context) ([]string, error) {
			return nil, errors.New("backend down")
		},
	})
	s := NewSession("t5")

	if err := m.SubmitIdentity(context.Background(), s, validIdentity()); err != nil {
		t.Fatalf("SubmitIdentity: %v", err)
	}
	if err := m.SubmitRegistration(context.Background(), s, validRegistration()); err != nil {
		t.Fatalf("SubmitRegistration should tolerate brand failure, got %v", err)
	}
	view := s.Snapshot()
	if view.Step != int(StepVehicleSelection) {
		t.Errorf("step = %d, want vehicle selection", view.Step)
	}
	if len(view.Brands) != 0 {
		t.Errorf("brands = %v, want empty", view.Brands)
	}
}

func TestBackRetreatsOneStep(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t6")
	advanceToVehicleSelection(t, m, s)

	if err := m.Back(s); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if s.Step() != StepRegistration {
		t.Errorf("step = %v, want registration", s.Step())
	}
	if err := m.Back(s); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if s.Step() != StepIdentity {
		t.Errorf("step = %v, want identity", s.Step())
	}

	// Form data survives the retreat.
	if s.Snapshot().Form.NationalID != "12345678901" {
		t.Errorf("form lost on back")
	}
}

func TestBrandChangeClearsDownstream(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t7")
	ctx := context.Background()
	advanceToVehicleSelection(t, m, s)

	if err := m.SelectBrand(ctx, s, "Renault"); err != nil {
		t.Fatalf("SelectBrand: %v", err)
	}
	if err := m.SelectModel(ctx, s, "Clio"); err != nil {
		t.Fatalf("SelectModel: %v", err)
	}
	if err := m.SelectYear(ctx, s, "2020"); err != nil {
		t.Fatalf("SelectYear: %v", err)
	}

	if err := m.SelectBrand(ctx, s, "Fiat"); err != nil {
		t.Fatalf("SelectBrand: %v", err)
	}

	view := s.Snapshot()
	if view.Selection.Brand != "Fiat" {
		t.Errorf("brand = %q", view.Selection.Brand)
	}
	if view.Selection.Model != "" || view.Selection.Year != "" {
		t.Errorf("downstream selection not cleared: %+v", view.Selection)
	}
	if len(view.Years) != 0 {
		t.Errorf("year options not cleared: %v", view.Years)
	}
}

func TestStaleModelListDiscarded(t *testing.T) {
	s := NewSession("t8")
	var m *Machine
	catalog := &stubCatalog{}
	catalog.models = func(ctx context.Context, brand string) ([]string, error) {
		if brand == "Slow" {
			// A competing selection lands while this lookup is in flight.
			if err := m.SelectBrand(ctx, s, "Fast"); err != nil {
				t.Errorf("nested SelectBrand: %v", err)
			}
			return []string{"SlowModel"}, nil
		}
		return []string{"FastModel"}, nil
	}
	m = newTestMachine(catalog)
	advanceToVehicleSelection(t, m, s)

	if err := m.SelectBrand(context.Background(), s, "Slow"); err != nil {
		t.Fatalf("SelectBrand: %v", err)
	}

	view := s.Snapshot()
	if view.Selection.Brand != "Fast" {
		t.Errorf("brand = %q, want Fast", view.Selection.Brand)
	}
	if len(view.Models) != 1 || view.Models[0] != "FastModel" {
		t.Errorf("models = %v, stale list should be discarded", view.Models)
	}
}

func TestRequestQuoteRequiresCompleteSelection(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t9")
	ctx := context.Background()
	advanceToVehicleSelection(t, m, s)

	if err := m.SelectBrand(ctx, s, "Renault"); err != nil {
		t.Fatalf("SelectBrand: %v", err)
	}
	if _, err := m.RequestQuote(ctx, s); !errors.Is(err, ErrSelectionIncomplete) {
		t.Errorf("err = %v, want ErrSelectionIncomplete", err)
	}
	if s.Step() != StepVehicleSelection {
		t.Errorf("step = %v", s.Step())
	}
}

func TestRequestQuoteFailureKeepsStep(t *testing.T) {
	m := newTestMachine(&stubCatalog{
		vehicle: func(ctx context.Context, brand, model, year string) (*models.Vehicle, error) {
			return nil, errors.New("backend down")
		},
	})
	s := NewSession("t10")
	ctx := context.Background()
	advanceToVehicleSelection(t, m, s)

	if err := m.SelectBrand(ctx, s, "Renault"); err != nil {
		t.Fatalf("SelectBrand: %v", err)
	}
	if err := m.SelectModel(ctx, s, "Clio"); err != nil {
		t.Fatalf("SelectModel: %v", err)
	}
	if err := m.SelectYear(ctx, s, "2020"); err != nil {
		t.Fatalf("SelectYear: %v", err)
	}

	if _, err := m.RequestQuote(ctx, s); err == nil {
		t.Fatalf("expected error from failed lookup")
	}
	view := s.Snapshot()
	if view.Step != int(StepVehicleSelection) {
		t.Errorf("step = %d, should stay on vehicle selection", view.Step)
	}
	if view.Loading {
		t.Errorf("loading flag should be cleared after failure")
	}
}

func TestFullFlowToOrder(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t11")
	ctx := context.Background()
	advanceToVehicleSelection(t, m, s)

	if err := m.SelectBrand(ctx, s, "Renault"); err != nil {
		t.Fatalf("SelectBrand: %v", err)
	}
	if err := m.SelectModel(ctx, s, "Clio"); err != nil {
		t.Fatalf("SelectModel: %v", err)
	}
	if err := m.SelectYear(ctx, s, "2020"); err != nil {
		t.Fatalf("SelectYear: %v", err)
	}

	view, err := m.RequestQuote(ctx, s)
	if err != nil {
		t.Fatalf("RequestQuote: %v", err)
	}
	if s.Step() != StepResults {
		t.Fatalf("step = %v, want results", s.Step())
	}
	if view.Savings != 240 {
		t.Errorf("savings = %v, want 240", view.Savings)
	}

	if _, err := m.SelectOffer(s, "Yok Sigorta"); !errors.Is(err, ErrUnknownCompany) {
		t.Errorf("unknown company: err = %v", err)
	}

	offer, err := m.SelectOffer(s, "B Sigorta")
	if err != nil {
		t.Fatalf("SelectOffer: %v", err)
	}
	if offer.TransferPrice != 8760 || offer.CardPrice != 11388 {
		t.Errorf("offer prices = %v/%v", offer.TransferPrice, offer.CardPrice)
	}

	// Picking another row replaces the offer wholesale.
	offer, err = m.SelectOffer(s, "A Sigorta")
	if err != nil {
		t.Fatalf("SelectOffer: %v", err)
	}
	if offer.Company != "A Sigorta" || offer.TransferPrice != 9000 {
		t.Errorf("replacement offer = %+v", offer)
	}

	order, _, err := s.ConsumeOffer()
	if err != nil {
		t.Fatalf("ConsumeOffer: %v", err)
	}
	if order.Company != "A Sigorta" || order.Price != 9000 {
		t.Errorf("order = %+v", order)
	}
	if order.NationalID != "12345678901" || order.Brand != "Renault" {
		t.Errorf("order payload incomplete: %+v", order)
	}

	// The offer is gone after consumption.
	if _, _, err := s.ConsumeOffer(); !errors.Is(err, ErrNoOffer) {
		t.Errorf("second consume: err = %v, want ErrNoOffer", err)
	}
}

func TestRestoreOfferAfterFailedOrder(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t12")
	ctx := context.Background()
	advanceToVehicleSelection(t, m, s)

	if err := m.SelectBrand(ctx, s, "Renault"); err != nil {
		t.Fatalf("SelectBrand: %v", err)
	}
	if err := m.SelectModel(ctx, s, "Clio"); err != nil {
		t.Fatalf("SelectModel: %v", err)
	}
	if err := m.SelectYear(ctx, s, "2020"); err != nil {
		t.Fatalf("SelectYear: %v", err)
	}
	if _, err := m.RequestQuote(ctx, s); err != nil {
		t.Fatalf("RequestQuote: %v", err)
	}
	if _, err := m.SelectOffer(s, "B Sigorta"); err != nil {
		t.Fatalf("SelectOffer: %v", err)
	}

	_, offer, err := s.ConsumeOffer()
	if err != nil {
		t.Fatalf("ConsumeOffer: %v", err)
	}
	s.RestoreOffer(offer)

	order, _, err := s.ConsumeOffer()
	if err != nil {
		t.Fatalf("ConsumeOffer after restore: %v", err)
	}
	if order.Company != "B Sigorta" {
		t.Errorf("order company = %q", order.Company)
	}
}

func TestNewQueryClearsSelectionKeepsForm(t *testing.T) {
	m := newTestMachine(&stubCatalog{})
	s := NewSession("t13")
	ctx := context.Background()
	advanceToVehicleSelection(t, m, s)

	if err := m.SelectBrand(ctx, s, "Renault"); err != nil {
		t.Fatalf("SelectBrand: %v", err)
	}
	if err := m.SelectModel(ctx, s, "Clio"); err != nil {
		t.Fatalf("SelectModel: %v", err)
	}
	if err := m.SelectYear(ctx, s, "2020"); err != nil {
		t.Fatalf("SelectYear: %v", err)
	}
	if _, err := m.RequestQuote(ctx, s); err != nil {
		t.Fatalf("RequestQuote: %v", err)
	}

	if err := m.NewQuery(s); err != nil {
		t.Fatalf("NewQuery: %v", err)
	}

	view := s.Snapshot()
	if view.Step != int(StepVehicleSelection) {
		t.Errorf("step = %d", view.Step)
	}
	if view.Selection != (models.Selection{}) {
		t.Errorf("selection not cleared: %+v", view.Selection)
	}
	if view.Comparison != nil || view.Offer != nil {
		t.Errorf("quote state not cleared")
	}
	if len(view.Brands) == 0 {
		t.Errorf("brand list should be retained")
	}
	if view.Form.NationalID != "12345678901" {
		t.Errorf("form should be retained")
	}
}
