package normalize

import "strings"

// ValidateISBN strips separators, uppercases and accepts 10 or 13 character codes
// of digits or X. 13-character codes must start with 978 or 979. The check digit is
// not verified; see ValidateISBNStrict. Returns the cleaned code and false on failure.
func ValidateISBN(raw string) (string, bool) {
	cleaned := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(raw)))

	switch len(cleaned) {
	case 10:
	case 13:
		if !strings.HasPrefix(cleaned, "978") && !strings.HasPrefix(cleaned, "979") {
			return "", false
		}
	default:
		return "", false
	}

	for _, r := range cleaned {
		if (r < '0' || r > '9') && r != 'X' {
			return "", false
		}
	}
	return cleaned, true
}

// ValidateISBNStrict is ValidateISBN plus check digit verification
func ValidateISBNStrict(raw string) (string, bool) {
	cleaned, ok := ValidateISBN(raw)
	if !ok {
		return "", false
	}
	if len(cleaned) == 10 {
		return cleaned, isbn10Checksum(cleaned)
	}
	return cleaned, isbn13Checksum(cleaned)
}

func isbn10Checksum(code string) bool {
	sum := 0
	for i, r := range code {
		var v int
		switch {
		case r == 'X' && i == 9:
			v = 10
		case r >= '0' && r <= '9':
			v = int(r - '0')
		default:
			return false
		}
		sum += (10 - i) * v
	}
	return sum%11 == 0
}

func isbn13Checksum(code string) bool {
	sum := 0
	for i, r := range code {
		if r < '0' || r > '9' {
			return false
		}
		v := int(r - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}
