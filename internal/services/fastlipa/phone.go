package fastlipa

import "strings"

const defaultCountryCode = "255"

// NormalizePhone converts a locally formatted mobile number into the
// <countryCode><subscriberNumber> form the gateway expects:
//
//	0793710144   -> 255793710144
//	255793710144 -> 255793710144
//	793710144    -> 255793710144
//
// Anything else is rejected with ErrInvalidPhoneFormat.
func NormalizePhone(raw, countryCode string) (string, error) {
	if countryCode == "" {
		countryCode = defaultCountryCode
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if !isDigits(cleaned) {
		return "", ErrInvalidPhoneFormat
	}

	// A leading zero is always dropped in favor of the country code,
	// whatever the length; the country-code prefix is likewise accepted
	// as-is. Only the bare form is held to the 9-digit subscriber length.
	switch {
	case strings.HasPrefix(cleaned, "0"):
		return countryCode + cleaned[1:], nil
	case strings.HasPrefix(cleaned, countryCode):
		return cleaned, nil
	case len(cleaned) == 9:
		return countryCode + cleaned, nil
	default:
		return "", ErrInvalidPhoneFormat
	}
}

func isDigits(s string) bool {
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
