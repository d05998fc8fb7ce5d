package card

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Brand is the issuing card network inferred from the leading digits.
type Brand string

const (
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandAmex       Brand = "amex"
	BrandDiners     Brand = "diners"
	BrandUnknown    Brand = "unknown"
)

var (
	fullNumberRe = regexp.MustCompile(`^[0-9]{13,19}$`)
	digitsOnlyRe = regexp.MustCompile(`[^0-9]`)

	visaRe       = regexp.MustCompile(`^4`)
	mastercardRe = regexp.MustCompile(`^(5[1-5]|2[2-7])`)
	amexRe       = regexp.MustCompile(`^3[47]`)
	dinersRe     = regexp.MustCompile(`^(36|38|30[0-5])`)

	cvc3Re = regexp.MustCompile(`^[0-9]{3}$`)
	cvc4Re = regexp.MustCompile(`^[0-9]{4}$`)
)

// CleanNumber strips spaces and dashes from a card number.
func CleanNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

// ValidateNumber reports whether the card number passes the Luhn check.
// Anything other than 13-19 decimal digits (after cleaning) fails.
func ValidateNumber(number string) bool {
	cleaned := CleanNumber(number)
	if !fullNumberRe.MatchString(cleaned) {
		return false
	}

	sum := 0
	double := false
	for i := len(cleaned) - 1; i >= 0; i-- {
		d := int(cleaned[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// DetectBrand classifies a cleaned number by prefix. It works on partial
// input so it can drive live feedback while the number is being typed.
// The mastercard 2-series range 2221-2720 is approximated as 2[2-7].
func DetectBrand(number string) Brand {
	cleaned := CleanNumber(number)

	switch {
	case visaRe.MatchString(cleaned):
		return BrandVisa
	case mastercardRe.MatchString(cleaned):
		return BrandMastercard
	case amexRe.MatchString(cleaned):
		return BrandAmex
	case dinersRe.MatchString(cleaned):
		return BrandDiners
	default:
		return BrandUnknown
	}
}

// maxDigits is the longest number FormatNumber keeps per brand.
func maxDigits(brand Brand) int {
	if brand == BrandAmex {
		return 15
	}
	return 16
}

// FormatNumber groups digits 4-4-4-4, or 4-6-5 for amex, truncating to the
// brand's maximum length. Non-digit input characters are dropped.
func FormatNumber(number string) string {
	digits := digitsOnlyRe.ReplaceAllString(CleanNumber(number), "")
	brand := DetectBrand(digits)

	if n := maxDigits(brand); len(digits) > n {
		digits = digits[:n]
	}

	var groups []int
	if brand == BrandAmex {
		groups = []int{4, 6, 5}
	} else {
		groups = []int{4, 4, 4, 4}
	}

	var parts []string
	for _, g := range groups {
		if len(digits) == 0 {
			break
		}
		if g > len(digits) {
			g = len(digits)
		}
		parts = append(parts, digits[:g])
		digits = digits[g:]
	}
	return strings.Join(parts, " ")
}

// FormatExpiry inserts a slash after the month digits and caps the input at
// four digits (MMYY).
func FormatExpiry(expiry string) string {
	digits := digitsOnlyRe.ReplaceAllString(expiry, "")
	if len(digits) > 4 {
		digits = digits[:4]
	}
	if len(digits) <= 2 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

// ValidateExpiry reports whether the month/year pair is a real month that is
// not in the past. Years are two-digit. Unparseable or empty input is
// invalid.
func ValidateExpiry(month, year string) bool {
	return validateExpiryAt(month, year, time.Now())
}

func validateExpiryAt(month, year string, now time.Time) bool {
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return false
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return false
	}

	if m < 1 || m > 12 {
		return false
	}

	curYY := now.Year() % 100
	curMM := int(now.Month())
	if y < curYY {
		return false
	}
	if y == curYY && m < curMM {
		return false
	}
	return true
}

// ValidateCVC checks the security code length for the brand: four digits for
// amex, three for everything else including unknown. Whitespace is stripped
// first; any other non-digit character invalidates it.
func ValidateCVC(cvc string, brand Brand) bool {
	cleaned := strings.Join(strings.Fields(cvc), "")
	if brand == BrandAmex {
		return cvc4Re.MatchString(cleaned)
	}
	return cvc3Re.MatchString(cleaned)
}
