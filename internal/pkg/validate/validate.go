// Package validate holds the shared field-format checks used by the auth
// and checkout engines. These run locally and never involve the remote
// collaborator.
package validate

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
	zipRe   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// Email reports whether s is a plausible email address.
func Email(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && emailRe.MatchString(s)
}

// Phone reports whether s is a plausible phone number.
func Phone(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && phoneRe.MatchString(s)
}

// ZipCode reports whether s is a 5-digit (optionally ZIP+4) code.
func ZipCode(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && zipRe.MatchString(s)
}
