package validation

import (
	"regexp"
	"strconv"
	"strings"
)

// Field validators for the quote wizard and the cancellation form. Each takes
// the raw field value and returns a human-readable message, or "" when the
// value is valid. They are pure; callers re-run them on every change so the
// error state never goes stale. Messages are the ones the UI shows, verbatim.

var (
	digitsOnlyRe   = regexp.MustCompile(`^\d+$`)
	nationalIDRe   = regexp.MustCompile(`^\d{11}$`)
	docSerialRe    = regexp.MustCompile(`^[A-Z0-9]{8}$`)
	phoneRe        = regexp.MustCompile(`^5\d{9}$`)
	upperLettersRe = regexp.MustCompile(`^[A-Z]+$`)
	containsDigit  = regexp.MustCompile(`\d`)
)

// ValidateNationalID checks the 11-digit TC Kimlik number.
func ValidateNationalID(value string) string {
	if len(value) != 11 {
		return "TC Kimlik No 11 haneli olmalıdır"
	}
	if !nationalIDRe.MatchString(value) {
		return "TC Kimlik No sadece rakamlardan oluşmalıdır"
	}
	return ""
}

// ValidateDocumentSerial checks the 8-character serial printed on the ID card.
func ValidateDocumentSerial(value string) string {
	if len(value) != 8 {
		return "TC Seri No 8 karakter olmalıdır (örn: A49L2955)"
	}
	if !docSerialRe.MatchString(value) {
		return "TC Seri No harfler ve rakamlardan oluşmalıdır"
	}
	return ""
}

// ValidateName checks a first or last name. The label is interpolated into
// the message ("Ad", "Soyad").
func ValidateName(value, label string) string {
	if strings.TrimSpace(value) == "" {
		return label + " gereklidir"
	}
	if containsDigit.MatchString(value) {
		return label + " rakam içeremez"
	}
	return ""
}

// ValidatePhone checks a mobile number: 10 digits, starting with 5.
func ValidatePhone(value string) string {
	if len(value) != 10 {
		return "Telefon 10 haneli olmalıdır"
	}
	if !phoneRe.MatchString(value) {
		return "Telefon 5XXXXXXXXX formatında olmalıdır"
	}
	return ""
}

// ValidateRegistrationSeries checks the 2-letter vehicle registration series.
func ValidateRegistrationSeries(value string) string {
	if len(value) != 2 {
		return "Ruhsat Seri 2 harf olmalıdır (örn: HU)"
	}
	if !upperLettersRe.MatchString(value) {
		return "Ruhsat Seri sadece harflerden oluşmalıdır"
	}
	return ""
}

// ValidateRegistrationNumber checks the 6-digit registration number.
func ValidateRegistrationNumber(value string) string {
	if len(value) != 6 {
		return "Ruhsat No 6 rakam olmalıdır (örn: 779350)"
	}
	if !digitsOnlyRe.MatchString(value) {
		return "Ruhsat No sadece rakamlardan oluşmalıdır"
	}
	return ""
}

// ValidatePlateRegion checks the 2-digit plate region code (01-81).
func ValidatePlateRegion(value string) string {
	if len(value) != 2 {
		return "Plaka İl Kodu 2 rakam olmalıdır (01-81)"
	}
	if !digitsOnlyRe.MatchString(value) {
		return "Plaka İl Kodu 01-81 arasında olmalıdır"
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 81 {
		return "Plaka İl Kodu 01-81 arasında olmalıdır"
	}
	return ""
}

// ValidatePlateLetters checks the 1-4 letter plate block.
func ValidatePlateLetters(value string) string {
	if len(value) < 1 || len(value) > 4 {
		return "Plaka Seri 1-4 harf olmalıdır (örn: A, AB, ABC, ABCD)"
	}
	if !upperLettersRe.MatchString(value) {
		return "Plaka Seri sadece harflerden oluşmalıdır"
	}
	return ""
}

// ValidatePlateDigits checks the 1-4 digit plate block.
func ValidatePlateDigits(value string) string {
	if len(value) < 1 || len(value) > 4 {
		return "Plaka No 1-4 rakam olmalıdır (örn: 1, 12, 123, 1234)"
	}
	if !digitsOnlyRe.MatchString(value) {
		return "Plaka No sadece rakamlardan oluşmalıdır"
	}
	return ""
}

// ValidateCancelName checks the free-form name on the cancellation form.
func ValidateCancelName(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Ad soyad gereklidir"
	}
	if containsDigit.MatchString(value) {
		return "Ad soyad rakam içeremez"
	}
	return ""
}

// ValidateCancelPhone checks the phone on the cancellation form. Spaces are
// stripped before the checks; the message ordering follows the original form.
func ValidateCancelPhone(value string) string {
	cleaned := strings.ReplaceAll(value, " ", "")
	if cleaned == "" {
		return "Telefon numarası gereklidir"
	}
	if !strings.HasPrefix(cleaned, "5") {
		return "Telefon numarası 5 ile başlamalıdır"
	}
	if !digitsOnlyRe.MatchString(cleaned) {
		return "Telefon numarası sadece rakam içermelidir"
	}
	if len(cleaned) != 10 {
		return "Telefon numarası 10 haneli olmalıdır"
	}
	return ""
}

// ValidateCancelPlate checks the three-part plate on the cancellation form.
// That form is looser than the wizard's registration step: up to 3 letters
// and up to 5 digits.
func ValidateCancelPlate(city, letters, numbers string) string {
	if city == "" || letters == "" || numbers == "" {
		return "Tüm plaka alanları doldurulmalıdır"
	}
	n, err := strconv.Atoi(city)
	if err != nil || n < 1 || n > 81 {
		return "Plaka kodu 01-81 arası olmalıdır"
	}
	if !upperLettersRe.MatchString(letters) || len(letters) > 3 {
		return "Plaka harfleri sadece büyük harf içermelidir"
	}
	if !digitsOnlyRe.MatchString(numbers) {
		return "Plaka numarası sadece rakam içermelidir"
	}
	if len(numbers) > 5 {
		return "Plaka numarası maksimum 5 haneli olabilir"
	}
	return ""
}
