package models

// FormRecord carries the identity and registration fields captured by the
// wizard. Field names on the wire match what the remote order endpoint
// expects, so the struct doubles as the form section of the order payload.
// All fields are strings while the user is typing; validity is derived, not
// stored.
type FormRecord struct {
	NationalID         string `json:"tcKimlik"`
	DocumentSerial     string `json:"tcFull"`
	FirstName          string `json:"ad"`
	LastName           string `json:"soyad"`
	Phone              string `json:"telefon"`
	RegistrationSeries string `json:"ruhsatSeri"`
	RegistrationNumber string `json:"ruhsatNo"`
	PlateRegion        string `json:"plakaIl"`
	PlateLetters       string `json:"plakaSeri"`
	PlateDigits        string `json:"plakaNo"`
}

// Selection is the (brand, model, year) triple picked in the vehicle step.
// Each part is optional until chosen; clearing rules live in the wizard.
type Selection struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  string `json:"year"`
}

// Complete reports whether all three parts have been chosen.
func (s Selection) Complete() bool {
	return s.Brand != "" && s.Model != "" && s.Year != ""
}

// Vehicle is the catalog record for a resolved selection. Quotes maps an
// insurer company name to its premium; one entry may be the vehicle's casco
// value, which is never compared against premiums.
type Vehicle struct {
	ID     int                `json:"id"`
	Brand  string             `json:"marka"`
	Model  string             `json:"model"`
	Year   string             `json:"yil"`
	Quotes map[string]float64 `json:"sigortalar"`
}

// BankAccount is a payment destination sourced from the remote backend.
// Read-only here.
type BankAccount struct {
	ID          int    `json:"id"`
	BankName    string `json:"bank_name"`
	IBAN        string `json:"iban"`
	AccountName string `json:"account_name"`
	Branch      string `json:"branch"`
	IsActive    bool   `json:"is_active"`
	Order       int    `json:"order"`
}

// Order is the payload persisted by the remote backend when the user
// finishes the flow.
type Order struct {
	FormRecord
	Brand   string  `json:"marka"`
	Model   string  `json:"model"`
	Year    string  `json:"yil"`
	Company string  `json:"secilenSigorta"`
	Price   float64 `json:"fiyat"`
}

// OrderConfirmation is what the user is shown after placing an order: the
// local order number to quote in the wire-transfer description, plus the
// accounts the money can go to.
type OrderConfirmation struct {
	OrderNumber    string        `json:"orderNumber"`
	BackendOrderID string        `json:"siparisId,omitempty"`
	Company        string        `json:"company"`
	Price          float64       `json:"price"`
	BankAccounts   []BankAccount `json:"bankAccounts"`
}

// CancelRequest is the policy-cancellation intake form from the landing page.
type CancelRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Plate string `json:"plate"`
}
