package checkout

import (
	"regexp"
	"sort"
	"strings"
)

// Payment is the discriminated payment choice. Card details are
// validated locally; the variants other than card carry no fields and
// always validate.
type Payment interface {
	payment()
	// MethodID is the wire identifier sent with the order.
	MethodID() string
}

// CardPayment is a credit or debit card.
type CardPayment struct {
	Number string
	Name   string
	Expiry string
	CVV    string
}

// PayPalPayment defers collection to the provider.
type PayPalPayment struct{}

// CashOnDelivery collects on arrival.
type CashOnDelivery struct{}

func (CardPayment) payment()    {}
func (PayPalPayment) payment()  {}
func (CashOnDelivery) payment() {}

func (CardPayment) MethodID() string    { return "card" }
func (PayPalPayment) MethodID() string  { return "paypal" }
func (CashOnDelivery) MethodID() string { return "cod" }

var expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])\/\d{2}$`)

// FieldErrors maps field names to their validation messages. It doubles
// as the error returned when a form fails local validation.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

func onlyDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validatePayment checks card fields locally. Spaces in the card number
// are stripped before the 16-digit check, matching how the field is
// formatted for display.
func validatePayment(p Payment) FieldErrors {
	card, ok := p.(CardPayment)
	if !ok {
		return nil
	}

	fe := FieldErrors{}
	number := strings.ReplaceAll(card.Number, " ", "")
	if len(number) != 16 || !onlyDigits(number) {
		fe["cardNumber"] = "please enter a valid 16-digit card number"
	}
	if len(strings.TrimSpace(card.Name)) < 3 {
		fe["cardName"] = "please enter the name on the card"
	}
	if !expiryRe.MatchString(card.Expiry) {
		fe["expiryDate"] = "please enter a valid expiry date (MM/YY)"
	}
	if !onlyDigits(card.CVV) || len(card.CVV) < 3 || len(card.CVV) > 4 {
		fe["cvv"] = "please enter a valid CVV"
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}
