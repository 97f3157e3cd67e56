package checkout

import (
	"strings"

	"github.com/murkotick/shophub-core/internal/app/auth"
	"github.com/murkotick/shophub-core/internal/pkg/validate"
)

// validateAddress checks the shipping form locally and returns one
// message per offending field.
func validateAddress(a auth.Address) FieldErrors {
	fe := FieldErrors{}
	if len(strings.TrimSpace(a.FullName)) < 2 {
		fe["fullName"] = "please enter your full name"
	}
	if !validate.Email(a.Email) {
		fe["email"] = "please enter a valid email"
	}
	if !validate.Phone(a.Phone) {
		fe["phone"] = "please enter a valid phone number"
	}
	if len(strings.TrimSpace(a.Street)) < 5 {
		fe["street"] = "please enter your street address"
	}
	if len(strings.TrimSpace(a.City)) < 2 {
		fe["city"] = "please enter your city"
	}
	if strings.TrimSpace(a.State) == "" {
		fe["state"] = "please enter your state"
	}
	if !validate.ZipCode(a.ZipCode) {
		fe["zipCode"] = "please enter a valid ZIP code"
	}
	if strings.TrimSpace(a.Country) == "" {
		fe["country"] = "please enter your country"
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}
