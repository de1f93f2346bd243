package momo

import (
	"errors"
	"fmt"
	"strings"
)

// Phone validation errors.
var (
	ErrInvalidPhoneFormat = errors.New("invalid phone number format")
	ErrUnsupportedNetwork = errors.New("phone number is not on the MTN network")
)

const (
	countryCallingCode = "+233"
	localNumberLength  = 10
	localPrefix        = "0"
)

// mtnPrefixes are the recognized MTN Ghana number prefixes in local format.
var mtnPrefixes = map[string]struct{}{
	"024": {},
	"025": {},
	"053": {},
	"054": {},
	"055": {},
	"059": {},
}

// NormalizePhone validates a Ghanaian MTN number and returns it in canonical
// international format (+233XXXXXXXXX). Accepted inputs are the local form
// 0XXXXXXXXX and the international forms +233XXXXXXXXX / 233XXXXXXXXX, with
// incidental spaces, dashes, and parentheses stripped.
func NormalizePhone(raw string) (string, error) {
	cleaned := stripFormatting(raw)
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidPhoneFormat)
	}

	local := cleaned
	switch {
	case strings.HasPrefix(cleaned, countryCallingCode):
		local = localPrefix + cleaned[len(countryCallingCode):]
	case strings.HasPrefix(cleaned, "233"):
		local = localPrefix + cleaned[len("233"):]
	}

	if len(local) != localNumberLength || !strings.HasPrefix(local, localPrefix) || !allDigits(local) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneFormat, raw)
	}
	if _, ok := mtnPrefixes[local[:3]]; !ok {
		return "", fmt.Errorf("%w: prefix %s", ErrUnsupportedNetwork, local[:3])
	}
	return countryCallingCode + local[1:], nil
}

func stripFormatting(raw string) string {
	var builder strings.Builder
	for _, character := range strings.TrimSpace(raw) {
		switch character {
		case ' ', '-', '(', ')':
			continue
		}
		builder.WriteRune(character)
	}
	return builder.String()
}

func allDigits(value string) bool {
	for _, character := range value {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}
