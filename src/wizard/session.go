package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/username/sigortaapp/backend/src/models"
	"github.com/username/sigortaapp/backend/src/pricing"
)

// Step is the wizard's position. The four steps form a line; Results is
// terminal except for "new query" and a full reset.
type Step int

const (
	StepIdentity Step = iota + 1
	StepRegistration
	StepVehicleSelection
	StepResults
)

func (s Step) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepRegistration:
		return "registration"
	case StepVehicleSelection:
		return "vehicleSelection"
	case StepResults:
		return "results"
	default:
		return "unknown"
	}
}

var (
	// ErrValidationFailed means one or more fields of the current step
	// failed validation; the per-field messages are in the session state.
	ErrValidationFailed = errors.New("step validation failed")
	// ErrInvalidStep means the requested action is not allowed in the
	// session's current step.
	ErrInvalidStep = errors.New("action not allowed in current step")
	// ErrSelectionIncomplete means a quote was requested before brand,
	// model and year were all chosen.
	ErrSelectionIncomplete = errors.New("brand, model and year must all be selected")
	// ErrUnknownCompany means the chosen offer is not a row of the current
	// comparison.
	ErrUnknownCompany = errors.New("company not present in current comparison")
	// ErrNoOffer means an order was requested before an offer was chosen.
	ErrNoOffer = errors.New("no offer selected")
)

// Offer is the user's chosen row: company plus the floor-adjusted transfer
// price and the derived card price. Replaced wholesale when the user picks a
// different row; consumed exactly once when the order is placed.
type Offer struct {
	Company       string  `json:"company"`
	TransferPrice float64 `json:"transferPrice"`
	CardPrice     float64 `json:"cardPrice"`
}

// Session is one user's trip through the wizard. It is owned by a single UI
// session but reached by concurrent HTTP requests, so all access goes
// through the mutex. The generation counters guard the catalog cascade
// against out-of-order response arrival: every selection change bumps the
// level's generation, and a fetch result is applied only if its generation
// is still current.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	step        Step
	form        models.FormRecord
	fieldErrors map[string]string
	loading     bool

	selection models.Selection
	brands    []string
	modelOpts []string
	yearOpts  []string

	vehicle *models.Vehicle
	view    *pricing.ComparisonView
	offer   *Offer

	brandGen uint64
	modelGen uint64
	yearGen  uint64
}

// NewSession returns an empty session positioned on the identity step.
func NewSession(id string) *Session {
	return &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		step:        StepIdentity,
		fieldErrors: map[string]string{},
	}
}

// StateView is the JSON snapshot handed to the UI after every action.
type StateView struct {
	SessionID string            `json:"sessionId"`
	Step      int               `json:"step"`
	StepName  string            `json:"stepName"`
	Loading   bool              `json:"loading"`
	Form      models.FormRecord `json:"form"`
	Errors    map[string]string `json:"errors"`

	Selection models.Selection `json:"selection"`
	Brands    []string         `json:"brands,omitempty"`
	Models    []string         `json:"models,omitempty"`
	Years     []string         `json:"years,omitempty"`

	Comparison *pricing.ComparisonView `json:"comparison,omitempty"`
	Offer      *Offer                  `json:"offer,omitempty"`
}

// Snapshot returns a consistent copy of the session for rendering.
func (s *Session) Snapshot() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := make(map[string]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		errs[k] = v
	}

	view := StateView{
		SessionID: s.ID,
		Step:      int(s.step),
		StepName:  s.step.String(),
		Loading:   s.loading,
		Form:      s.form,
		Errors:    errs,
		Selection: s.selection,
		Brands:    append([]string(nil), s.brands...),
		Models:    append([]string(nil), s.modelOpts...),
		Years:     append([]string(nil), s.yearOpts...),
	}
	if s.view != nil {
		viewCopy := *s.view
		view.Comparison = &viewCopy
	}
	if s.offer != nil {
		offerCopy := *s.offer
		view.Offer = &offerCopy
	}
	return view
}

// Step returns the session's current step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// ConsumeOffer atomically builds the order payload from the captured form,
// the resolved vehicle and the selected offer, then clears the offer so it
// cannot be submitted twice. Fails unless the session sits on the results
// step with an offer chosen.
func (s *Session) ConsumeOffer() (models.Order, Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepResults || s.vehicle == nil {
		return models.Order{}, Offer{}, ErrInvalidStep
	}
	if s.offer == nil {
		return models.Order{}, Offer{}, ErrNoOffer
	}

	offer := *s.offer
	order := models.Order{
		FormRecord: s.form,
		Brand:      s.vehicle.Brand,
		Model:      s.vehicle.Model,
		Year:       s.vehicle.Year,
		Company:    offer.Company,
		Price:      offer.TransferPrice,
	}
	s.offer = nil
	return order, offer, nil
}

// RestoreOffer puts an offer back after a failed order submission, so the
// user can retry without re-selecting a row.
func (s *Session) RestoreOffer(offer Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepResults && s.offer == nil {
		restored := offer
		s.offer = &restored
	}
}
