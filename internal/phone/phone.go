package phone

import (
	"regexp"
	"strings"

	"github.com/nhle/vulcania/internal/model"
)

var (
	// mobileWithNine matches +569 followed by 8 or 9 digits.
	mobileWithNine = regexp.MustCompile(`^\+569\d{8,9}$`)

	// mobileWithoutNine matches +56 followed by 8 or 9 digits.
	mobileWithoutNine = regexp.MustCompile(`^\+56\d{8,9}$`)

	// duplicatedNine matches +569 followed by 9 or more digits, which is
	// what users type when they enter the mobile prefix twice.
	duplicatedNine = regexp.MustCompile(`^\+569\d{9,}$`)

	whitespace = regexp.MustCompile(`\s`)
)

// Normalize strips all whitespace from a phone number.
func Normalize(number string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(number), "")
}

// Variants returns the normalized number followed by the alternative
// spellings of the same Chilean mobile number. The result is deduplicated,
// preserving the order of first occurrence.
func Variants(number string) []string {
	base := Normalize(number)
	candidates := []string{base}

	if mobileWithNine.MatchString(base) {
		candidates = append(candidates, "+56"+strings.TrimPrefix(base, "+569"))
	}

	if mobileWithoutNine.MatchString(base) && !strings.HasPrefix(base, "+569") {
		candidates = append(candidates, "+569"+strings.TrimPrefix(base, "+56"))
	}

	if duplicatedNine.MatchString(base) {
		digits := base[4:12]
		candidates = append(candidates, "+569"+digits, "+56"+digits)
	}

	seen := make(map[string]bool, len(candidates))
	var result []string
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		result = append(result, c)
	}
	return result
}

// Equivalent reports whether two phone numbers share at least one variant.
func Equivalent(a, b string) bool {
	bv := make(map[string]bool)
	for _, v := range Variants(b) {
		bv[v] = true
	}
	for _, v := range Variants(a) {
		if bv[v] {
			return true
		}
	}
	return false
}

// Match finds the user registered under number. An exact match wins,
// then a match on the normalized number, then any user whose stored
// number shares a variant with the input.
func Match(number string, users []model.User) (model.User, bool) {
	for _, u := range users {
		if u.Phone == number {
			return u, true
		}
	}

	normalized := Normalize(number)
	for _, u := range users {
		if Normalize(u.Phone) == normalized {
			return u, true
		}
	}

	for _, u := range users {
		if Equivalent(number, u.Phone) {
			return u, true
		}
	}
	return model.User{}, false
}

// DefaultName is the display name given to a user created on first login:
// "Usuario" followed by the last four digits of the number.
func DefaultName(number string) string {
	n := Normalize(number)
	if len(n) > 4 {
		n = n[len(n)-4:]
	}
	return "Usuario " + n
}
