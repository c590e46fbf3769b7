package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	DefaultMaxLoadAmount = "1500000"
	MaxCardHolderLength  = 64
	CVULength            = 22
	BillReferenceLength  = 11
	MaxDescriptionLength = 140
	cardNumberLength     = 16
	expiryLayout         = "01/06"
)

var (
	aliasRegex     = regexp.MustCompile(`^[a-z0-9]+\.[a-z0-9]+\.[a-z0-9]+$`)
	digitsRegex    = regexp.MustCompile(`^[0-9]+$`)
	expiryRegex    = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	whitespaceRepl = strings.NewReplacer(" ", "", "-", "")
)

// ValidateAmount checks 0 < amount <= limit. A zero limit disables the ceiling.
func ValidateAmount(amount, limit decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if limit.IsPositive() && amount.GreaterThan(limit) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, limit.String())
	}

	return nil
}

// NormalizeCardNumber strips spaces and dashes.
func NormalizeCardNumber(number string) string {
	return whitespaceRepl.Replace(strings.TrimSpace(number))
}

// ValidateCardNumber checks length, digits and the Luhn checksum.
func ValidateCardNumber(number string) error {
	if len(number) != cardNumberLength || !digitsRegex.MatchString(number) {
		return fmt.Errorf("%w: must be %d digits", ErrInvalidCardNumber, cardNumberLength)
	}

	if !luhnValid(number) {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidCardNumber)
	}

	return nil
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d, _ := strconv.Atoi(string(number[i]))
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

// ValidateCardHolder validates the embossed name.
func ValidateCardHolder(holder string) error {
	holder = strings.TrimSpace(holder)
	if holder == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidCardHolder)
	}
	if len(holder) > MaxCardHolderLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidCardHolder, MaxCardHolderLength)
	}
	return nil
}

// ValidateExpiry checks the MM/YY format and that the card has not expired
// by the end of the expiry month.
func ValidateExpiry(expiry string, now time.Time) error {
	if !expiryRegex.MatchString(expiry) {
		return fmt.Errorf("%w: use MM/YY", ErrInvalidExpiry)
	}

	month, err := time.ParseInLocation(expiryLayout, expiry, now.Location())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpiry, err)
	}

	if !now.Before(month.AddDate(0, 1, 0)) {
		return ErrCardExpired
	}

	return nil
}

// ValidateBillReference checks the customer reference printed on invoices.
func ValidateBillReference(reference string) error {
	reference = strings.TrimSpace(reference)
	if len(reference) != BillReferenceLength || !digitsRegex.MatchString(reference) {
		return fmt.Errorf("%w: must be %d digits", ErrInvalidReference, BillReferenceLength)
	}
	return nil
}

// IsCVU reports whether destination looks like a CVU.
func IsCVU(destination string) bool {
	return len(destination) == CVULength && digitsRegex.MatchString(destination)
}

// IsAlias reports whether destination looks like an alias.
func IsAlias(destination string) bool {
	return aliasRegex.MatchString(destination)
}

// ValidateDestination accepts a CVU or an alias.
func ValidateDestination(destination string) error {
	destination = strings.TrimSpace(destination)
	if IsCVU(destination) || IsAlias(strings.ToLower(destination)) {
		return nil
	}
	return ErrInvalidDestination
}

// ValidateDescription limits free-text labels.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}
	return nil
}
