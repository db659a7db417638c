package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/models"
	"github.com/username/sigortaapp/backend/src/pricing"
	"github.com/username/sigortaapp/backend/src/validation"
)

// Catalog is the slice of the remote backend the wizard needs.
type Catalog interface {
	Brands(ctx context.Context) ([]string, error)
	Models(ctx context.Context, brand string) ([]string, error)
	Years(ctx context.Context, brand, model string) ([]string, error)
	Vehicle(ctx context.Context, brand, model, year string) (*models.Vehicle, error)
}

// Machine drives sessions through the wizard: it validates step submissions,
// runs the catalog cascade, and derives the price comparison. It holds no
// per-session state and is safe to share.
type Machine struct {
	catalog          Catalog
	stepVerifyDelay  time.Duration
	quoteRevealDelay time.Duration
	priceFloor       float64
	cardMarkup       float64
}

// NewMachine creates the shared wizard machine. The delays reproduce the UI
// pacing of the original flow; pass zero to disable them (tests do).
func NewMachine(catalog Catalog, stepVerifyDelay, quoteRevealDelay time.Duration, priceFloor, cardMarkup float64) *Machine {
	return &Machine{
		catalog:          catalog,
		stepVerifyDelay:  stepVerifyDelay,
		quoteRevealDelay: quoteRevealDelay,
		priceFloor:       priceFloor,
		cardMarkup:       cardMarkup,
	}
}

// IdentityInput is the raw step 1 submission.
type IdentityInput struct {
	NationalID     string `json:"tcKimlik"`
	DocumentSerial string `json:"tcFull"`
	FirstName      string `json:"ad"`
	LastName       string `json:"soyad"`
	Phone          string `json:"telefon"`
}

// RegistrationInput is the raw step 2 submission.
type RegistrationInput struct {
	RegistrationSeries string `json:"ruhsatSeri"`
	RegistrationNumber string `json:"ruhsatNo"`
	PlateRegion        string `json:"plakaIl"`
	PlateLetters       string `json:"plakaSeri"`
	PlateDigits        string `json:"plakaNo"`
}

// SubmitIdentity validates and stores the identity fields. On success the
// session advances to the registration step after the verification pause; on
// failure it stays put with the per-field messages populated. Fields are
// sanitized before storage, the same way the inputs scrub keystrokes.
func (m *Machine) SubmitIdentity(ctx context.Context, s *Session, in IdentityInput) error {
	s.mu.Lock()
	if s.step != StepIdentity {
		s.mu.Unlock()
		return ErrInvalidStep
	}

	s.form.NationalID = validation.DigitsOnly(in.NationalID)
	s.form.DocumentSerial = validation.UpperAlnumOnly(in.DocumentSerial)
	s.form.FirstName = validation.StripUnprintable(in.FirstName)
	s.form.LastName = validation.StripUnprintable(in.LastName)
	s.form.Phone = validation.DigitsOnly(in.Phone)

	errs := map[string]string{}
	setIfErr(errs, "tcKimlik", validation.ValidateNationalID(s.form.NationalID))
	setIfErr(errs, "tcFull", validation.ValidateDocumentSerial(s.form.DocumentSerial))
	setIfErr(errs, "ad", validation.ValidateName(s.form.FirstName, "Ad"))
	setIfErr(errs, "soyad", validation.ValidateName(s.form.LastName, "Soyad"))
	setIfErr(errs, "telefon", validation.ValidatePhone(s.form.Phone))

	s.fieldErrors = errs
	if len(errs) > 0 {
		s.mu.Unlock()
		return ErrValidationFailed
	}

	s.loading = true
	s.mu.Unlock()

	m.pause(ctx, m.stepVerifyDelay)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.step = StepRegistration
	return nil
}

// SubmitRegistration validates and stores the registration fields and, on
// success, advances to vehicle selection and loads the brand list. A failed
// brand fetch is logged and leaves the list empty; the step still advances,
// matching the original flow.
func (m *Machine) SubmitRegistration(ctx context.Context, s *Session, in RegistrationInput) error {
	s.mu.Lock()
	if s.step != StepRegistration {
		s.mu.Unlock()
		return ErrInvalidStep
	}

	s.form.RegistrationSeries = validation.UpperLettersOnly(in.RegistrationSeries)
	s.form.RegistrationNumber = validation.DigitsOnly(in.RegistrationNumber)
	s.form.PlateRegion = validation.DigitsOnly(in.PlateRegion)
	s.form.PlateLetters = validation.UpperLettersOnly(in.PlateLetters)
	s.form.PlateDigits = validation.DigitsOnly(in.PlateDigits)

	errs := map[string]string{}
	setIfErr(errs, "ruhsatSeri", validation.ValidateRegistrationSeries(s.form.RegistrationSeries))
	setIfErr(errs, "ruhsatNo", validation.ValidateRegistrationNumber(s.form.RegistrationNumber))
	setIfErr(errs, "plakaIl", validation.ValidatePlateRegion(s.form.PlateRegion))
	setIfErr(errs, "plakaSeri", validation.ValidatePlateLetters(s.form.PlateLetters))
	setIfErr(errs, "plakaNo", validation.ValidatePlateDigits(s.form.PlateDigits))

	s.fieldErrors = errs
	if len(errs) > 0 {
		s.mu.Unlock()
		return ErrValidationFailed
	}

	s.loading = true
	s.mu.Unlock()

	m.pause(ctx, m.stepVerifyDelay)

	brands, err := m.catalog.Brands(ctx)
	if err != nil {
		logger.L.Error("Failed to load brand list", "sessionID", s.ID, "error", err)
		brands = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.step = StepVehicleSelection
	s.brands = brands
	return nil
}

// Back retreats one step. It is unconditional on the middle steps and loses
// no form data.
func (m *Machine) Back(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepRegistration:
		s.step = StepIdentity
	case StepVehicleSelection:
		s.step = StepRegistration
	default:
		return ErrInvalidStep
	}
	s.fieldErrors = map[string]string{}
	return nil
}

// SelectBrand changes the selected brand. Model, year, their option lists
// and any resolved quotes are always cleared, whatever the new value; the
// model list is then fetched for a non-empty brand. A response that arrives
// after the brand has changed again is discarded.
func (m *Machine) SelectBrand(ctx context.Context, s *Session, brand string) error {
	s.mu.Lock()
	if s.step != StepVehicleSelection {
		s.mu.Unlock()
		return ErrInvalidStep
	}
	s.brandGen++
	gen := s.brandGen
	s.selection = models.Selection{Brand: brand}
	s.modelOpts = nil
	s.yearOpts = nil
	s.clearQuoteLocked()
	s.mu.Unlock()

	if brand == "" {
		return nil
	}

	modelList, err := m.catalog.Models(ctx, brand)
	if err != nil {
		logger.L.Error("Failed to load model list", "sessionID", s.ID, "brand", brand, "error", err)
		return fmt.Errorf("loading models for %q: %w", brand, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.brandGen != gen {
		// A newer selection won; this response is stale.
		return nil
	}
	s.modelOpts = modelList
	return nil
}

// SelectModel changes the selected model, clearing year and quotes, then
// fetches the year list when both brand and model are set.
func (m *Machine) SelectModel(ctx context.Context, s *Session, model string) error {
	s.mu.Lock()
	if s.step != StepVehicleSelection {
		s.mu.Unlock()
		return ErrInvalidStep
	}
	s.modelGen++
	gen := s.modelGen
	brand := s.selection.Brand
	s.selection.Model = model
	s.selection.Year = ""
	s.yearOpts = nil
	s.clearQuoteLocked()
	s.mu.Unlock()

	if brand == "" || model == "" {
		return nil
	}

	yearList, err := m.catalog.Years(ctx, brand, model)
	if err != nil {
		logger.L.Error("Failed to load year list", "sessionID", s.ID, "brand", brand, "model", model, "error", err)
		return fmt.Errorf("loading years for %q %q: %w", brand, model, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modelGen != gen {
		return nil
	}
	s.yearOpts = yearList
	return nil
}

// SelectYear changes the selected year. Only the resolved quotes are
// downstream of it.
func (m *Machine) SelectYear(ctx context.Context, s *Session, year string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepVehicleSelection {
		return ErrInvalidStep
	}
	s.yearGen++
	s.selection.Year = year
	s.clearQuoteLocked()
	return nil
}

// RequestQuote resolves the selected triple to its quote set, derives the
// comparison view and advances to the results step. On any failure the
// session stays on vehicle selection with nothing surfaced beyond the log,
// and the loading flag is cleared.
func (m *Machine) RequestQuote(ctx context.Context, s *Session) (*pricing.ComparisonView, error) {
	s.mu.Lock()
	if s.step != StepVehicleSelection {
		s.mu.Unlock()
		return nil, ErrInvalidStep
	}
	if !s.selection.Complete() {
		s.mu.Unlock()
		return nil, ErrSelectionIncomplete
	}
	sel := s.selection
	gen := s.yearGen
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	vehicle, err := m.catalog.Vehicle(ctx, sel.Brand, sel.Model, sel.Year)
	if err != nil {
		logger.L.Error("Quote lookup failed", "sessionID", s.ID, "selection", sel, "error", err)
		return nil, err
	}

	m.pause(ctx, m.quoteRevealDelay)

	view, err := pricing.BuildComparison(*vehicle, m.priceFloor, m.cardMarkup)
	if err != nil {
		logger.L.Warn("Quote set not comparable", "sessionID", s.ID, "selection", sel, "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.yearGen != gen || s.selection != sel {
		// Selection moved on while the lookup was in flight.
		return nil, ErrSelectionIncomplete
	}
	s.vehicle = vehicle
	s.view = view
	s.step = StepResults
	return view, nil
}

// SelectOffer records the user's chosen row. Choosing another row before
// ordering replaces the offer wholesale.
func (m *Machine) SelectOffer(s *Session, company string) (*Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepResults || s.view == nil {
		return nil, ErrInvalidStep
	}
	row, ok := s.view.Offer(company)
	if !ok {
		return nil, ErrUnknownCompany
	}
	s.offer = &Offer{
		Company:       row.Company,
		TransferPrice: row.TransferPrice,
		CardPrice:     row.CardPrice,
	}
	offer := *s.offer
	return &offer, nil
}

// NewQuery leaves the results step and returns to vehicle selection with the
// whole selection cleared. The form record and brand list are retained.
func (m *Machine) NewQuery(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepResults {
		return ErrInvalidStep
	}
	s.step = StepVehicleSelection
	s.brandGen++
	s.modelGen++
	s.yearGen++
	s.selection = models.Selection{}
	s.modelOpts = nil
	s.yearOpts = nil
	s.clearQuoteLocked()
	return nil
}

// clearQuoteLocked drops the resolved vehicle, comparison and offer.
// Callers hold s.mu.
func (s *Session) clearQuoteLocked() {
	s.vehicle = nil
	s.view = nil
	s.offer = nil
}

// pause sleeps for the configured UX delay, cut short if the caller goes
// away.
func (m *Machine) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func setIfErr(errs map[string]string, field, msg string) {
	if msg != "" {
		errs[field] = msg
	}
}
